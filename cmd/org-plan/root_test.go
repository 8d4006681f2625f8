package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/iota-uz/orgplan/modules/org/infrastructure/loader"
)

const treeYAML = `
id: root
role: EXEC
name: Sales
children:
  - id: rvp
    role: RVP
    name: West
    territories: 2
    children:
      - {id: ae-1, role: AE, name: Dana, headcount: 1, validated_capacity: 1200}
      - {id: ae-2, role: AE, name: Kim, headcount: 1, validated_capacity: 1150}
  - id: ae-3
    role: AE
    name: Lee
    headcount: 1
    validated_capacity: 1100
  - id: ae-4
    role: AE
    name: Ray
    headcount: 1
    validated_capacity: 1050
`

const zeroTreeYAML = `
id: root
role: EXEC
name: Sales
children:
  - {id: ae-1, role: AE, name: Dana, headcount: 1, validated_capacity: 0}
  - {id: ae-2, role: AE, name: Kim, headcount: 1}
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(t *testing.T, args ...string) ([]map[string]any, error) {
	t.Helper()
	t.Setenv("LOG_LEVEL", "silent")
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), "none.env")}, args...))
	err := cmd.Execute()

	var lines []map[string]any
	sc := bufio.NewScanner(&out)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m))
		lines = append(lines, m)
	}
	return lines, err
}

func TestRollup(t *testing.T) {
	lines, err := run(t, "rollup", writeFile(t, "org.yaml", treeYAML))
	require.NoError(t, err)
	require.Len(t, lines, 6)
	require.Equal(t, "root", lines[0]["id"])
	require.EqualValues(t, 4, lines[0]["headcount"])
	require.Equal(t, "$4,500.00", lines[0]["validated"])
	require.Equal(t, "$4,000.00", lines[0]["expected"])
	require.Equal(t, "2 territories · 2 people", lines[1]["subtitle"])
	require.NotContains(t, lines[0], "alternate_expected")

	lines, err = run(t, "rollup", "--alternate", writeFile(t, "org.yaml", treeYAML))
	require.NoError(t, err)
	require.Equal(t, "$3,200.00", lines[0]["alternate_expected"])
}

func TestSetHeadcount_WritesUpdatedTree(t *testing.T) {
	in := writeFile(t, "org.yaml", treeYAML)
	outPath := filepath.Join(t.TempDir(), "next.yaml")

	lines, err := run(t, "set-headcount", in, "--node", "ae-1", "--value", "4", "--out", outPath)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	require.EqualValues(t, 7, lines[0]["root_headcount"])
	require.Equal(t, outPath, lines[0]["written"])
	require.Len(t, lines[0]["changes"], 3)

	next, err := loader.LoadFile(outPath)
	require.NoError(t, err)
	require.Equal(t, 7, next.Root().Headcount)
	rvp, _ := next.Find("rvp")
	require.Equal(t, 5, rvp.Headcount)

	// The input file is untouched.
	before, err := loader.LoadFile(in)
	require.NoError(t, err)
	require.Equal(t, 4, before.Root().Headcount)
}

func TestSetHeadcount_ExitCodes(t *testing.T) {
	in := writeFile(t, "org.yaml", treeYAML)

	_, err := run(t, "set-headcount", in, "--node", "rvp", "--value", "9")
	require.Equal(t, exitValidation, exitCode(err))
	require.ErrorContains(t, err, "derived")

	_, err = run(t, "set-headcount", in, "--node", "ghost", "--value", "1")
	require.Equal(t, exitValidation, exitCode(err))

	_, err = run(t, "set-headcount", in, "--node", "ae-1", "--value", "-2")
	require.Equal(t, exitValidation, exitCode(err))

	_, err = run(t, "set-headcount", in, "--value", "1")
	require.Equal(t, exitUsage, exitCode(err))

	_, err = run(t, "set-headcount", filepath.Join(t.TempDir(), "missing.yaml"), "--node", "ae-1", "--value", "1")
	require.Equal(t, exitIO, exitCode(err))

	_, err = run(t, "set-headcount", in, "--bogus")
	require.Equal(t, exitUsage, exitCode(err))
}

func TestSetField(t *testing.T) {
	in := writeFile(t, "org.yaml", treeYAML)

	lines, err := run(t, "set-field", in, "--node", "ae-2", "--field", "validated_capacity", "--value", "")
	require.NoError(t, err)
	node := lines[0]["node"].(map[string]any)
	require.Equal(t, "—", node["validated_capacity"])

	lines, err = run(t, "set-field", in, "--node", "rvp", "--field", "target_capacity", "--value", "$5,000", "--in-place")
	require.NoError(t, err)
	require.Equal(t, in, lines[0]["written"])
	tree, err := loader.LoadFile(in)
	require.NoError(t, err)
	rvp, _ := tree.Find("rvp")
	require.Equal(t, "5000", rvp.TargetCapacity.String())

	_, err = run(t, "set-field", in, "--node", "rvp", "--field", "validated_capacity", "--value", "10")
	require.Equal(t, exitValidation, exitCode(err))

	_, err = run(t, "set-field", in, "--node", "rvp", "--field", "salary", "--value", "10")
	require.Equal(t, exitUsage, exitCode(err))
	require.ErrorContains(t, err, "Field must be one of: headcount target_capacity")
}

func TestApply_StopsAtFirstRejectedEdit(t *testing.T) {
	in := writeFile(t, "org.yaml", treeYAML)
	edits := writeFile(t, "edits.yaml", `
- {node_id: ae-1, field: headcount, value: "2"}
- {node_id: ae-3, field: status, value: ramping}
`)
	lines, err := run(t, "apply", in, "--edits", edits)
	require.NoError(t, err)
	require.EqualValues(t, 2, lines[0]["applied"])
	require.EqualValues(t, 5, lines[0]["root_headcount"])

	bad := writeFile(t, "bad.yaml", `
- {node_id: ae-1, field: headcount, value: "2"}
- {node_id: root, field: headcount, value: "2"}
`)
	_, err = run(t, "apply", in, "--edits", bad)
	require.Equal(t, exitValidation, exitCode(err))
	require.ErrorContains(t, err, "edit 1")
}

func TestAllocate_FromTree(t *testing.T) {
	lines, err := run(t, "allocate", writeFile(t, "org.yaml", treeYAML), "--units", "1000", "--budget", "450000")
	require.NoError(t, err)
	res := lines[0]
	require.Equal(t, "allocated", res["status"])

	allocs := res["allocations"].([]any)
	units := make([]float64, len(allocs))
	for i, a := range allocs {
		units[i] = a.(map[string]any)["units"].(float64)
	}
	require.Equal(t, []float64{267, 256, 244, 233}, units)
}

func TestAllocate_SkippedWhenNoCapacity(t *testing.T) {
	lines, err := run(t, "allocate", writeFile(t, "org.yaml", zeroTreeYAML), "--units", "1000")
	require.NoError(t, err)
	require.Equal(t, "skipped", lines[0]["status"])
	require.NotContains(t, lines[0], "allocations")
}

func TestAllocate_Plan(t *testing.T) {
	plan := writeFile(t, "plan.toml", `
units = 3
budget = 10
unassigned_key = "bench"

[[entities]]
key = "ae-1"
weight = 1

[[entities]]
key = "bench"
weight = 99

[[entities]]
key = "ae-2"
weight = "1.0"
`)
	lines, err := run(t, "allocate", "--plan", plan)
	require.NoError(t, err)
	allocs := lines[0]["allocations"].([]any)
	require.EqualValues(t, 2, allocs[0].(map[string]any)["units"])
	require.EqualValues(t, 0, allocs[1].(map[string]any)["units"])
	require.EqualValues(t, 1, allocs[2].(map[string]any)["units"])

	badPlan := writeFile(t, "bad.toml", "units = 3\nbudgett = 10\n")
	_, err = run(t, "allocate", "--plan", badPlan)
	require.Equal(t, exitValidation, exitCode(err))

	_, err = run(t, "allocate", "--units", "3")
	require.Equal(t, exitUsage, exitCode(err))
}

func TestExport(t *testing.T) {
	out := filepath.Join(t.TempDir(), "plan.xlsx")
	lines, err := run(t, "export", writeFile(t, "org.yaml", treeYAML), "--out", out, "--units", "10")
	require.NoError(t, err)
	require.EqualValues(t, 6, lines[0]["rows"])
	require.Equal(t, "allocated", lines[0]["allocation"])

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	require.Equal(t, []string{"Hierarchy", "Allocation"}, f.GetSheetList())

	_, err = run(t, "export", writeFile(t, "org.yaml", treeYAML))
	require.Equal(t, exitUsage, exitCode(err))
}

func TestFind(t *testing.T) {
	lines, err := run(t, "find", writeFile(t, "org.yaml", treeYAML), "kim")
	require.NoError(t, err)
	require.NotEmpty(t, lines)
	require.Equal(t, "ae-2", lines[0]["id"])
	require.Equal(t, []any{"Sales", "West", "Kim"}, lines[0]["path"])
}

func TestDiff(t *testing.T) {
	before := writeFile(t, "before.yaml", treeYAML)
	after := filepath.Join(t.TempDir(), "after.yaml")
	_, err := run(t, "set-headcount", before, "--node", "ae-3", "--value", "2", "--out", after)
	require.NoError(t, err)

	lines, err := run(t, "diff", before, after)
	require.NoError(t, err)
	require.EqualValues(t, 2, lines[0]["operations"])

	lines, err = run(t, "diff", before, before)
	require.NoError(t, err)
	require.EqualValues(t, 0, lines[0]["operations"])

	lines, err = run(t, "diff", "--verify", before, after)
	require.NoError(t, err)
	require.Equal(t, true, lines[0]["verified"])
}

func TestMetricsFile(t *testing.T) {
	prom := filepath.Join(t.TempDir(), "org-plan.prom")
	_, err := run(t, "--metrics-file", prom, "set-headcount", writeFile(t, "org.yaml", treeYAML), "--node", "ae-1", "--value", "2")
	require.NoError(t, err)

	b, err := os.ReadFile(prom)
	require.NoError(t, err)
	require.Contains(t, string(b), "org_hierarchy_edits_total")
}

func TestEventsOut(t *testing.T) {
	sink := filepath.Join(t.TempDir(), "events.jsonl")
	in := writeFile(t, "org.yaml", treeYAML)

	_, err := run(t, "--events-out", sink, "set-headcount", in, "--node", "ae-1", "--value", "2", "--request-id", "req-7")
	require.NoError(t, err)
	_, err = run(t, "--events-out", sink, "allocate", in, "--units", "10")
	require.NoError(t, err)

	f, err := os.Open(sink)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	var topics []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m))
		topics = append(topics, m["topic"].(string))
		if m["topic"] == "org.node.changed.v1" {
			require.Equal(t, "req-7", m["request_id"])
		}
	}
	require.Equal(t, []string{"org.node.changed.v1", "territory.allocation.computed.v1"}, topics)
}

func TestUnknownCurrencyIsRejected(t *testing.T) {
	t.Setenv("ORG_CURRENCY", "XYZ")
	_, err := run(t, "rollup", writeFile(t, "org.yaml", treeYAML))
	require.Equal(t, exitUsage, exitCode(err))
	require.ErrorContains(t, err, "unknown ORG_CURRENCY")
}
