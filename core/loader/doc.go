// Package loader mounts features on the HTTP router.
//
// A feature reports whether it can run with the current configuration
// (IsEnabled) and registers its routes in Load. The reconciliation feature,
// for example, is disabled when no ledger database is reachable.
//
//	m := loader.NewManager(log)
//	m.Register(reconciliation.NewFeature(svc))
//	if err := m.LoadAll(app); err != nil {
//	    return err
//	}
package loader
