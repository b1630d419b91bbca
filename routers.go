package magen

import "context"

// Routers inspect state and name the next node to run. They never mutate
// state and never fail: a missing or falsy condition always routes to the
// configured negative branch.

// =============================================================================
// CheckPropertiesFulfilledRouter
// =============================================================================

// CheckPropertiesFulfilledRouter routes on whether every required property
// holds a fulfilled value in state. The check is a set predicate: insertion
// order of the required collection never affects the result, and state fields
// outside the collection are ignored. An empty collection is vacuously
// fulfilled.
type CheckPropertiesFulfilledRouter struct {
	RouterName      string
	Required        *PropertyMetadataCollection
	FulfilledNode   string
	UnfulfilledNode string
}

func (r *CheckPropertiesFulfilledRouter) Name() string { return r.RouterName }

func (r *CheckPropertiesFulfilledRouter) Route(ctx context.Context, s State) string {
	if r.Required.Fulfilled(s) {
		return r.FulfilledNode
	}
	return r.UnfulfilledNode
}

// =============================================================================
// Boolean-predicate routers
// =============================================================================

// CheckEnvironmentValidatedRouter routes on state.ValidEnvironment.
type CheckEnvironmentValidatedRouter struct {
	RouterName  string
	ValidNode   string
	InvalidNode string
}

func (r *CheckEnvironmentValidatedRouter) Name() string { return r.RouterName }

func (r *CheckEnvironmentValidatedRouter) Route(ctx context.Context, s State) string {
	if s.ValidEnvironment {
		return r.ValidNode
	}
	return r.InvalidNode
}

// CheckPluginValidatedRouter routes on state.ValidPluginSetup.
type CheckPluginValidatedRouter struct {
	RouterName  string
	ValidNode   string
	InvalidNode string
}

func (r *CheckPluginValidatedRouter) Name() string { return r.RouterName }

func (r *CheckPluginValidatedRouter) Route(ctx context.Context, s State) string {
	if s.ValidPluginSetup {
		return r.ValidNode
	}
	return r.InvalidNode
}

// CheckFatalErrorsRouter routes to the healthy branch only while no fatal
// workflow errors have accumulated.
type CheckFatalErrorsRouter struct {
	RouterName  string
	HealthyNode string
	FailureNode string
}

func (r *CheckFatalErrorsRouter) Name() string { return r.RouterName }

func (r *CheckFatalErrorsRouter) Route(ctx context.Context, s State) string {
	if s.HasFatalErrors() {
		return r.FailureNode
	}
	return r.HealthyNode
}

// CheckProjectGenerationRouter routes to the success branch only when a
// project path was produced and no fatal errors have accumulated. An empty
// project path counts as failure.
type CheckProjectGenerationRouter struct {
	RouterName  string
	SuccessNode string
	FailureNode string
}

func (r *CheckProjectGenerationRouter) Name() string { return r.RouterName }

func (r *CheckProjectGenerationRouter) Route(ctx context.Context, s State) string {
	if s.ProjectPath != "" && !s.HasFatalErrors() {
		return r.SuccessNode
	}
	return r.FailureNode
}

// =============================================================================
// CheckBuildStatusRouter
// =============================================================================

// DefaultMaxBuildAttempts caps consecutive failed builds before the workflow
// gives up.
const DefaultMaxBuildAttempts = 3

// CheckBuildStatusRouter routes after a build attempt: success moves on,
// failure retries until the consecutive-failure count reaches MaxAttempts,
// then routes to the failure branch.
type CheckBuildStatusRouter struct {
	RouterName  string
	MaxAttempts int
	SuccessNode string
	RetryNode   string
	FailureNode string
}

func (r *CheckBuildStatusRouter) Name() string { return r.RouterName }

func (r *CheckBuildStatusRouter) Route(ctx context.Context, s State) string {
	if s.BuildSuccessful {
		return r.SuccessNode
	}
	max := r.MaxAttempts
	if max <= 0 {
		max = DefaultMaxBuildAttempts
	}
	if s.BuildAttemptCount < max {
		return r.RetryNode
	}
	return r.FailureNode
}
