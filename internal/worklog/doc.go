// Package worklog records run provenance next to the downloaded data.
//
// Every run leaves its trail under the _workflow_log/ prefix of the
// destination store, so anyone looking at a forcing directory later can
// tell what produced it and when:
//
//	{store}/_workflow_log/control_active.txt          (copy of the control file)
//	{store}/_workflow_log/era5fetch_log_20260822.txt  (append-only, one entry per run)
//	{store}/_workflow_log/manifest_20260822.yaml      (machine-readable, latest run wins)
//
// The text log accumulates across runs on the same day; the YAML
// manifest is rewritten by each run and describes the most recent one.
package worklog
