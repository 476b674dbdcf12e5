/*
Package operations runs deployment side effects as versioned, reportable units of work.

An Operation wraps a single side effect (for example sending a contract creation
transaction). Executing it through ExecuteOperation produces a Report which is handed to a
Reporter. Before executing, previous successful reports with the same definition and input
are looked up and returned instead, which makes re-running a deployment idempotent as long
as the Reporter outlives the process (see FileReporter).

# Basic Usage

	op := operations.NewOperation("deploy-contract", semver.MustParse("1.0.0"),
		"Deploys a contract", handler)

	bundle := operations.NewBundle(ctx, lggr, operations.NewMemoryReporter())
	report, err := operations.ExecuteOperation(bundle, op, deps, input)

# Forced execution

WithForceExecution bypasses the previous report lookup. The resulting report is flagged
with Forced so that later lookups prefer it over older reports for the same input.
*/
package operations
