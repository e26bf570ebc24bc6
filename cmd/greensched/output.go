package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/ja7ad/greensched/pkg/model"
	"github.com/ja7ad/greensched/pkg/search"
	"github.com/ja7ad/greensched/pkg/types"
	"github.com/ja7ad/greensched/pkg/workload"
)

type report struct {
	Command    string             `json:"command"`
	Strategy   string             `json:"strategy"`
	Threshold  float64            `json:"threshold,omitempty"`
	Stop       string             `json:"stop,omitempty"`
	Workload   workload.Summary   `json:"workload"`
	Rows       []row              `json:"rows"`
	Downgrades []search.Downgrade `json:"downgrades,omitempty"`
}

// row is one trial. Round is -1 outside a search.
type row struct {
	Name           string          `json:"name"`
	Round          int             `json:"round"`
	Jobs           int             `json:"jobs"`
	Violations     int             `json:"violations"`
	ViolationRatio float64         `json:"violation_ratio"`
	Makespan       float64         `json:"makespan_sec"`
	Energy         types.Joules    `json:"energy_j"`
	Fitness        float64         `json:"fitness"`
	HostStates     []int           `json:"host_states"`
	IdlePower      types.Watts     `json:"idle_power_w"`
	Tardiness      model.Tardiness `json:"tardiness"`
	Elapsed        time.Duration   `json:"elapsed_ns,omitempty"`
	Operating      bool            `json:"operating_point,omitempty"`
}

// Tiers is the late-job count per severity tier, "a/b/c".
func (r row) Tiers() string {
	t := r.Tardiness.Tiers
	return fmt.Sprintf("%d/%d/%d", t[0].Count, t[1].Count, t[2].Count)
}

func newRow(name string, round int, tr *model.TrialResult, elapsed time.Duration) row {
	return row{
		Name:           name,
		Round:          round,
		Jobs:           len(tr.Jobs),
		Violations:     tr.Violations,
		ViolationRatio: tr.ViolationRatio,
		Makespan:       tr.Makespan,
		Energy:         tr.Energy,
		Fitness:        tr.Fitness,
		HostStates:     tr.HostStates,
		IdlePower:      tr.IdlePower(),
		Tardiness:      tr.Tardiness,
		Elapsed:        elapsed,
	}
}

func (a *app) write(rep *report) error {
	if !a.o.quiet {
		printTable(os.Stdout, rep)
	}
	if a.o.csvPath != "" {
		if err := writeFile(a.o.csvPath, func(w io.Writer) error { return writeCSV(w, rep) }); err != nil {
			return fmt.Errorf("csv: %w", err)
		}
	}
	if a.o.jsonPath != "" {
		if err := writeFile(a.o.jsonPath, func(w io.Writer) error { return writeJSON(w, rep) }); err != nil {
			return fmt.Errorf("json: %w", err)
		}
	}
	if a.o.htmlPath != "" {
		if err := writeFile(a.o.htmlPath, func(w io.Writer) error { return tpl.Execute(w, rep) }); err != nil {
			return fmt.Errorf("html: %w", err)
		}
	}
	return nil
}

func writeFile(path string, fn func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func printTable(w io.Writer, rep *report) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tROUND\tJOBS\tVIOLATIONS\tRATIO\tLATE AVG/MAX (s)\tTIERS\tMAKESPAN (s)\tENERGY\tIDLE\tSTATES\t")
	fmt.Fprintln(tw, "----\t-----\t----\t----------\t-----\t----------------\t-----\t------------\t------\t----\t------\t")
	for _, r := range rep.Rows {
		mark := ""
		if r.Operating {
			mark = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%.4f\t%.2f/%.2f\t%s\t%.3f\t%s\t%s\t%v\t%s\n",
			r.Name, round(r.Round), r.Jobs, r.Violations, r.ViolationRatio,
			r.Tardiness.Mean(), r.Tardiness.Max, r.Tiers(),
			r.Makespan, r.Energy.Humanized(), r.IdlePower.Humanized(), r.HostStates, mark)
	}
	tw.Flush()

	for _, r := range rep.Rows {
		if r.Tardiness.Violations > 0 && (r.Operating || len(rep.Rows) == 1) {
			printTiers(w, r)
		}
	}

	if rep.Stop != "" {
		fmt.Fprintf(w, "\nsearch stopped: %s (threshold %.3f, %d downgrades)\n", rep.Stop, rep.Threshold, len(rep.Downgrades))
	}
	fmt.Fprintln(w)
}

var tierLabels = [...]string{"<= 10% over deadline", "<= 50% over deadline", "> 50% over deadline"}

// printTiers writes the severity breakdown of one row's late jobs.
func printTiers(w io.Writer, r row) {
	td := r.Tardiness
	fmt.Fprintf(w, "\nlate jobs of %s: %d of %d finished, %.2f%% of the work\n",
		r.Name, td.Violations, td.Finished, td.ViolatedWork*100)
	for i, t := range td.Tiers {
		if t.Count == 0 {
			continue
		}
		fmt.Fprintf(w, "  tier %d (%s): %d (%.2f%%) avg %.2fs min %.2fs max %.2fs\n",
			i+1, tierLabels[i], t.Count, float64(t.Count)*100/float64(td.Violations), t.Mean(), t.Min, t.Max)
	}
}

func round(r int) string {
	if r < 0 {
		return "-"
	}
	return strconv.Itoa(r)
}

func writeCSV(w io.Writer, rep *report) error {
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{
		"name", "round", "jobs", "violations", "violation_ratio",
		"tardiness_mean_sec", "tardiness_max_sec", "violated_work",
		"tier1", "tier2", "tier3",
		"makespan_sec", "energy_j", "idle_power_w", "fitness", "elapsed_sec", "operating_point",
	})
	for _, r := range rep.Rows {
		_ = cw.Write([]string{
			r.Name,
			strconv.Itoa(r.Round),
			strconv.Itoa(r.Jobs),
			strconv.Itoa(r.Violations),
			fmtFloat(r.ViolationRatio),
			fmtFloat(r.Tardiness.Mean()),
			fmtFloat(r.Tardiness.Max),
			fmtFloat(r.Tardiness.ViolatedWork),
			strconv.Itoa(r.Tardiness.Tiers[0].Count),
			strconv.Itoa(r.Tardiness.Tiers[1].Count),
			strconv.Itoa(r.Tardiness.Tiers[2].Count),
			fmtFloat(r.Makespan),
			fmtFloat(float64(r.Energy)),
			fmtFloat(float64(r.IdlePower)),
			strconv.FormatFloat(r.Fitness, 'g', -1, 64),
			fmtFloat(r.Elapsed.Seconds()),
			strconv.FormatBool(r.Operating),
		})
	}
	cw.Flush()
	return cw.Error()
}

func fmtFloat(f float64) string { return strconv.FormatFloat(f, 'f', 6, 64) }

func writeJSON(w io.Writer, rep *report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

var tpl = template.Must(template.New("rep").Funcs(template.FuncMap{
	"pct": func(f float64) float64 { return f * 100 },
}).Parse(`<!doctype html>
<html lang="en"><meta charset="utf-8">
<title>greensched report</title>
<style>
body{font-family:system-ui,Segoe UI,Roboto,Helvetica,Arial,sans-serif;margin:20px}
h1,h2{margin:0 0 8px}
table{border-collapse:collapse;width:100%;font-size:14px}
th,td{border:1px solid #ddd;padding:6px 8px;text-align:right}
th:first-child,td:first-child{text-align:left}
ul{margin:6px 0 14px;padding-left:20px}
.small{color:#555}
.op{background:#eef}
</style>

<h1>greensched report</h1>

<p class="small">
Command: {{.Command}} &nbsp;|&nbsp;
Strategy: {{.Strategy}}{{if .Stop}} &nbsp;|&nbsp;
Stop: {{.Stop}} (threshold {{printf "%.3f" .Threshold}}){{end}}
</p>

<h2>Workload</h2>
<ul>
<li>Jobs: {{.Workload.Count}}</li>
<li>Mean length: {{printf "%.0f" .Workload.MeanLength}} MI (std {{printf "%.0f" .Workload.StdLength}})</li>
<li>Mean slack: {{printf "%.2f" .Workload.MeanSlack}} s</li>
<li>Last arrival: {{printf "%.2f" .Workload.LastArrival}} s</li>
</ul>

<h2>Trials</h2>
<table>
<thead>
<tr>
<th>name</th><th>round</th><th>jobs</th><th>violations</th><th>ratio</th>
<th>late avg (s)</th><th>late max (s)</th><th>late work</th><th>tiers &le;10%/&le;50%/&gt;50%</th>
<th>makespan (s)</th><th>energy</th><th>idle</th><th>host states</th>
</tr>
</thead>
<tbody>
{{range .Rows}}
<tr{{if .Operating}} class="op"{{end}}>
<td>{{.Name}}</td>
<td>{{.Round}}</td>
<td>{{.Jobs}}</td>
<td>{{.Violations}}</td>
<td>{{printf "%.4f" .ViolationRatio}}</td>
<td>{{printf "%.2f" .Tardiness.Mean}}</td>
<td>{{printf "%.2f" .Tardiness.Max}}</td>
<td>{{printf "%.1f%%" (pct .Tardiness.ViolatedWork)}}</td>
<td>{{.Tiers}}</td>
<td>{{printf "%.3f" .Makespan}}</td>
<td>{{.Energy.Humanized}}</td>
<td>{{.IdlePower.Humanized}}</td>
<td>{{.HostStates}}</td>
</tr>
{{end}}
</tbody>
</table>

{{if .Downgrades}}
<h2>Downgrades</h2>
<table>
<thead><tr><th>round</th><th>host</th><th>from</th><th>to</th><th>fraction</th></tr></thead>
<tbody>
{{range .Downgrades}}
<tr><td>{{.Round}}</td><td>{{.HostID}}</td><td>{{.From}}</td><td>{{.To}}</td><td>{{printf "%.2f" .FromFraction}} &rarr; {{printf "%.2f" .ToFraction}}</td></tr>
{{end}}
</tbody>
</table>
{{end}}
</html>`))
