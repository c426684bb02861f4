// Package reporter writes analysis reports as HTML, CSV and JSON
package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"github.com/lvonguyen/ppc-analyzer/internal/analysis"
	"github.com/lvonguyen/ppc-analyzer/internal/config"
)

// ReportData contains all data for report generation
type ReportData struct {
	Name        string           `json:"name"`
	Result      *analysis.Result `json:"result"`
	GeneratedAt time.Time        `json:"generatedAt"`
}

// Reporter generates analysis reports
type Reporter struct {
	config config.ReporterConfig
	tmpl   *template.Template
}

// New creates a new Reporter
func New(cfg config.ReporterConfig) *Reporter {
	return &Reporter{
		config: cfg,
		tmpl:   template.Must(template.New("report").Parse(htmlTemplate)),
	}
}

// GenerateAll writes HTML, CSV and JSON reports and returns their paths
func (r *Reporter) GenerateAll(data ReportData) ([]string, error) {
	var paths []string
	for _, gen := range []func(ReportData) (string, error){r.GenerateHTML, r.GenerateCSV, r.GenerateJSON} {
		path, err := gen(data)
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// GenerateHTML generates an HTML report
func (r *Reporter) GenerateHTML(data ReportData) (string, error) {
	outputPath, err := r.outputPath(data, "html")
	if err != nil {
		return "", err
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	if err := r.tmpl.Execute(f, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return outputPath, nil
}

// GenerateCSV generates a CSV table of campaign performance
func (r *Reporter) GenerateCSV(data ReportData) (string, error) {
	outputPath, err := r.outputPath(data, "csv")
	if err != nil {
		return "", err
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)

	// Header
	records := [][]string{{"Campaign", "Spend", "Sales", "ACoS", "ROAS", "Clicks", "Impressions", "Orders", "CTR", "CPC", "CVR"}}

	// Data rows
	for _, c := range data.Result.Campaigns {
		records = append(records, []string{
			c.Name,
			fmt.Sprintf("%.2f", c.Spend),
			fmt.Sprintf("%.2f", c.Sales),
			fmt.Sprintf("%.2f", c.ACoS),
			fmt.Sprintf("%.2f", c.ROAS),
			fmt.Sprintf("%.0f", c.Clicks),
			fmt.Sprintf("%.0f", c.Impressions),
			fmt.Sprintf("%.0f", c.Orders),
			fmt.Sprintf("%.2f", c.CTR),
			fmt.Sprintf("%.2f", c.CPC),
			fmt.Sprintf("%.2f", c.CVR),
		})
	}

	if err := writer.WriteAll(records); err != nil {
		return "", fmt.Errorf("failed to write csv: %w", err)
	}

	return outputPath, nil
}

// GenerateJSON generates a JSON report
func (r *Reporter) GenerateJSON(data ReportData) (string, error) {
	outputPath, err := r.outputPath(data, "json")
	if err != nil {
		return "", err
	}

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if err := os.WriteFile(outputPath, jsonData, 0644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return outputPath, nil
}

func (r *Reporter) outputPath(data ReportData, ext string) (string, error) {
	// Ensure output directory exists
	if err := os.MkdirAll(r.config.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	at := data.GeneratedAt
	if at.IsZero() {
		at = time.Now()
	}
	filename := fmt.Sprintf("ppc-report-%s.%s", at.Format("20060102-150405"), ext)
	return filepath.Join(r.config.OutputDir, filename), nil
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>PPC Analysis - {{.Name}}</title>
    <style>
        :root {
            --bg-dark: #0f172a;
            --bg-card: #1e293b;
            --text-primary: #f1f5f9;
            --text-secondary: #94a3b8;
            --accent-blue: #3b82f6;
            --accent-green: #22c55e;
            --accent-yellow: #eab308;
            --accent-red: #ef4444;
            --border: #334155;
        }
        * { box-sizing: border-box; margin: 0; padding: 0; }
        body {
            font-family: 'Inter', -apple-system, BlinkMacSystemFont, sans-serif;
            background: var(--bg-dark);
            color: var(--text-primary);
            line-height: 1.6;
            padding: 2rem;
        }
        .container { max-width: 1400px; margin: 0 auto; }
        h1 { font-size: 2rem; margin-bottom: 0.5rem; }
        .subtitle { color: var(--text-secondary); margin-bottom: 2rem; }
        .stats-grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(180px, 1fr));
            gap: 1rem;
            margin-bottom: 2rem;
        }
        .stat-card, .rec {
            background: var(--bg-card);
            border: 1px solid var(--border);
            border-radius: 12px;
            padding: 1.5rem;
        }
        .stat-label { color: var(--text-secondary); font-size: 0.875rem; }
        .stat-value { font-size: 1.75rem; font-weight: 700; }
        .stat-value.green { color: var(--accent-green); }
        .stat-value.red { color: var(--accent-red); }
        .section { margin-bottom: 2rem; }
        .section-title {
            font-size: 1.25rem;
            margin-bottom: 1rem;
            padding-bottom: 0.5rem;
            border-bottom: 1px solid var(--border);
        }
        .rec { margin-bottom: 1rem; }
        .rec.danger { border-left: 4px solid var(--accent-red); }
        .rec.warning { border-left: 4px solid var(--accent-yellow); }
        .rec.success { border-left: 4px solid var(--accent-green); }
        .rec.info { border-left: 4px solid var(--accent-blue); }
        .rec pre { color: var(--text-secondary); white-space: pre-wrap; margin-top: 0.5rem; }
        table {
            width: 100%;
            border-collapse: collapse;
            background: var(--bg-card);
            border-radius: 12px;
            overflow: hidden;
        }
        th, td { padding: 0.75rem 1rem; text-align: left; }
        th {
            background: rgba(59, 130, 246, 0.1);
            font-weight: 600;
            color: var(--accent-blue);
        }
        tr:not(:last-child) { border-bottom: 1px solid var(--border); }
        .footer {
            margin-top: 3rem;
            padding-top: 1rem;
            border-top: 1px solid var(--border);
            color: var(--text-secondary);
            font-size: 0.875rem;
        }
    </style>
</head>
<body>
    <div class="container">
        <h1>{{.Name}}</h1>
        <p class="subtitle">Target ACoS {{.Result.TargetACoS}}% | Generated: {{.GeneratedAt.Format "2006-01-02 15:04:05 MST"}}</p>

        {{with .Result.Metrics}}
        <div class="stats-grid">
            <div class="stat-card"><div class="stat-label">Spend</div><div class="stat-value">${{printf "%.2f" .TotalSpend}}</div></div>
            <div class="stat-card"><div class="stat-label">Sales</div><div class="stat-value">${{printf "%.2f" .TotalSales}}</div></div>
            <div class="stat-card"><div class="stat-label">ACoS</div><div class="stat-value {{if gt .ACoS $.Result.TargetACoS}}red{{else}}green{{end}}">{{printf "%.2f" .ACoS}}%</div></div>
            <div class="stat-card"><div class="stat-label">ROAS</div><div class="stat-value">{{printf "%.2f" .ROAS}}x</div></div>
            <div class="stat-card"><div class="stat-label">CTR</div><div class="stat-value">{{printf "%.2f" .CTR}}%</div></div>
            <div class="stat-card"><div class="stat-label">CPC</div><div class="stat-value">${{printf "%.2f" .CPC}}</div></div>
            <div class="stat-card"><div class="stat-label">CVR</div><div class="stat-value">{{printf "%.2f" .CVR}}%</div></div>
            <div class="stat-card"><div class="stat-label">Orders</div><div class="stat-value">{{printf "%.0f" .TotalOrders}}</div></div>
        </div>
        {{end}}

        {{if .Result.Recommendations}}
        <div class="section">
            <h2 class="section-title">Recommendations</h2>
            {{range .Result.Recommendations}}
            <div class="rec {{.Severity}}">
                <strong>{{.Title}}</strong>
                <p>{{.Description}}</p>
                {{if .Action}}<p><em>{{.Action}}</em></p>{{end}}
                <pre>{{range .Details}}{{.}}
{{end}}</pre>
            </div>
            {{end}}
        </div>
        {{end}}

        <div class="section">
            <h2 class="section-title">Campaigns</h2>
            <table>
                <thead>
                    <tr><th>Campaign</th><th>Spend</th><th>Sales</th><th>ACoS</th><th>ROAS</th><th>Orders</th></tr>
                </thead>
                <tbody>
                    {{range .Result.Campaigns}}
                    <tr>
                        <td>{{.Name}}</td>
                        <td>${{printf "%.2f" .Spend}}</td>
                        <td>${{printf "%.2f" .Sales}}</td>
                        <td>{{printf "%.2f" .ACoS}}%</td>
                        <td>{{printf "%.2f" .ROAS}}x</td>
                        <td>{{printf "%.0f" .Orders}}</td>
                    </tr>
                    {{end}}
                </tbody>
            </table>
        </div>

        <div class="section">
            <h2 class="section-title">Campaign Breakdown</h2>
            {{range .Result.Campaigns}}
            <h3 class="subtitle">{{.Name}}</h3>
            <table>
                <thead>
                    <tr><th>Keyword</th><th>Spend</th><th>Sales</th><th>ACoS</th><th>CPC</th><th>CVR</th></tr>
                </thead>
                <tbody>
                    {{range .Keywords}}
                    <tr>
                        <td>{{.Name}}</td>
                        <td>${{printf "%.2f" .Spend}}</td>
                        <td>${{printf "%.2f" .Sales}}</td>
                        <td>{{printf "%.2f" .ACoS}}%</td>
                        <td>${{printf "%.2f" .CPC}}</td>
                        <td>{{printf "%.2f" .CVR}}%</td>
                    </tr>
                    {{end}}
                </tbody>
            </table>
            <table>
                <thead>
                    <tr><th>Placement</th><th>Spend</th><th>Sales</th><th>ACoS</th><th>ROAS</th><th>CTR</th></tr>
                </thead>
                <tbody>
                    {{range .Placements}}
                    <tr>
                        <td>{{.Name}}</td>
                        <td>${{printf "%.2f" .Spend}}</td>
                        <td>${{printf "%.2f" .Sales}}</td>
                        <td>{{printf "%.2f" .ACoS}}%</td>
                        <td>{{printf "%.2f" .ROAS}}x</td>
                        <td>{{printf "%.2f" .CTR}}%</td>
                    </tr>
                    {{end}}
                </tbody>
            </table>
            {{end}}
        </div>

        {{if .Result.WastedSpend.Keywords}}
        <div class="section">
            <h2 class="section-title">Wasted Spend (${{printf "%.2f" .Result.WastedSpend.TotalWasted}})</h2>
            <table>
                <thead>
                    <tr><th>Keyword</th><th>Match Type</th><th>Clicks</th><th>Spend</th></tr>
                </thead>
                <tbody>
                    {{range .Result.WastedSpend.Keywords}}
                    <tr>
                        <td>{{.Keyword}}</td>
                        <td>{{.MatchType}}</td>
                        <td>{{printf "%.0f" .Clicks}}</td>
                        <td>${{printf "%.2f" .Spend}}</td>
                    </tr>
                    {{end}}
                </tbody>
            </table>
        </div>
        {{end}}

        {{if .Result.InefficientSpend.Items}}
        <div class="section">
            <h2 class="section-title">Inefficient Spend (${{printf "%.2f" .Result.InefficientSpend.TotalInefficient}})</h2>
            <table>
                <thead>
                    <tr><th>Type</th><th>Name</th><th>Spend</th><th>ACoS</th><th>CPC</th></tr>
                </thead>
                <tbody>
                    {{range .Result.InefficientSpend.Items}}
                    <tr>
                        <td>{{.Type}}</td>
                        <td>{{.Name}}</td>
                        <td>${{printf "%.2f" .Spend}}</td>
                        <td>{{printf "%.2f" .ACoS}}%</td>
                        <td>${{printf "%.2f" .CPC}}</td>
                    </tr>
                    {{end}}
                </tbody>
            </table>
        </div>
        {{end}}

        <div class="footer">
            <p>Generated by PPC Analyzer | github.com/lvonguyen/ppc-analyzer</p>
        </div>
    </div>
</body>
</html>`
