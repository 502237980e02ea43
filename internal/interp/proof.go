package interp

import (
	"el/internal/errors"
	"el/internal/parser"
)

// checkProof runs a proof block against its theorem. Steps execute in a
// child scope so hypotheses never leak into the program. Every test step
// must hold and the block must end in QED; the checker does not verify that
// the steps logically entail the theorem.
func (i *Interpreter) checkProof(block *parser.ProofBlock, env *Env) error {
	thm, ok := i.theorems[block.Theorem]
	if !ok {
		return errors.Newf(errors.ProofError, "proof of undeclared theorem '%s'", block.Theorem)
	}
	if thm.axiom {
		return errors.Newf(errors.ProofError, "'%s' is an axiom and needs no proof", block.Theorem)
	}

	proofEnv := NewEnv(env)
	for _, step := range block.Steps {
		if err := i.execProofStep(block.Theorem, step, proofEnv); err != nil {
			return err
		}
	}

	if !block.Completed {
		return errors.Newf(errors.ProofIncompleteError,
			"proof of '%s' does not end with QED", block.Theorem)
	}
	thm.checked = true
	return nil
}

func (i *Interpreter) execProofStep(theorem string, step parser.ProofStep, env *Env) error {
	switch s := step.(type) {
	case *parser.HypothesisStep:
		v, err := i.evalTruth(s.Prop, env)
		if err != nil {
			return err
		}
		return env.Define(s.Name, v)

	case *parser.TestStep:
		got, err := i.evalTruth(s.Subject, env)
		if err != nil {
			return err
		}
		want := truthValue(s.Expected)
		if got != want {
			return errors.Newf(errors.ProofTestFailure,
				"test '%s' in proof of '%s': expected %s, got %s", s.Label, theorem, want, got)
		}
		return nil

	case *parser.ExprStep:
		// a bare step must still evaluate to a truth value
		_, err := i.evalTruth(s.X, env)
		return err
	}
	return errors.Newf(errors.ProofError, "unsupported proof step %T", step)
}
