package schema

import (
	"github.com/visioncreator-works/nango/internal/ir"
)

// validate enforces the structural rules of the normalized IR plus the
// sync-output id invariant. Structural rules report the generic message;
// the id invariant reports its own, because the user can only fix it by
// editing the named model.
func validate(cfg *ir.NangoConfig) error {
	for _, integration := range cfg.Integrations {
		for _, op := range integration.Operations {
			if err := validateOp(integration.Name, op); err != nil {
				return err
			}
		}
	}
	return checkSyncOutputIDs(cfg)
}

func validateOp(integration string, op ir.OperationConfig) error {
	if op.Kind == ir.KindAction && len(op.WebhookSubscriptions) > 0 {
		return validationErrorf("action %q of %q declares webhook subscriptions", op.Name, integration)
	}
	if op.Kind == ir.KindSync && op.Runs == "" {
		return validationErrorf("sync %q of %q declares no schedule", op.Name, integration)
	}
	return nil
}

// checkSyncOutputIDs enforces the dedup-key invariant: every model used
// as a sync's output must carry an id field. Models only used by actions
// are exempt. Model name matching is exact; a name that happens to end in
// a plural s is matched as written.
func checkSyncOutputIDs(cfg *ir.NangoConfig) error {
	for _, integration := range cfg.Integrations {
		for _, op := range integration.Operations {
			if op.Kind != ir.KindSync {
				continue
			}
			for _, output := range op.Outputs {
				model, ok := cfg.Model(output)
				if !ok {
					continue
				}
				if !model.HasField("id") {
					return &ModelInvariantError{Model: model.Name}
				}
			}
		}
	}
	return nil
}
