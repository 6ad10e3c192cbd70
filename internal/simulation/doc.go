// Package simulation runs repeated Bayesian experiments and records how a
// group of agents' credences evolve.
//
// A Simulator draws outcomes from the true outcome distribution with an
// injected random source and updates every agent with credence.Update after
// each draw. Simulate returns the full Trajectory: the initial priors plus
// one snapshot per draw, together with the outcomes that produced them.
// RunTrials repeats Simulate many times to check that agents with different
// priors end up agreeing on the true hypothesis.
//
// Scenarios bundle the inputs of an experiment and load from YAML:
//
//	sc, err := simulation.LoadScenario("coin.yaml")
//	if err != nil {
//	    return err
//	}
//	sim := simulation.NewSeededSimulator(*sc.Seed)
//	traj, err := sim.SimulateScenario(sc)
package simulation
