// Package health provides liveness and readiness probes.
//
// Liveness (/health) only reports that the process is serving. Readiness
// (/ready) runs every registered check concurrently, each under its own
// timeout, and answers 503 while any of them fails. prgate registers a
// "policy_pack" check that fails until a pack has loaded and a
// "comparators" check that fails on an empty registry.
//
//	checker := health.New(2 * time.Second)
//	checker.RegisterCheck("policy_pack", func(ctx context.Context) error {
//	    if manager.Current() == nil {
//	        return policypack.ErrNoPack
//	    }
//	    return nil
//	})
//	mux.Handle("GET /health", checker.LivenessHandler())
//	mux.Handle("GET /ready", checker.ReadinessHandler())
package health
