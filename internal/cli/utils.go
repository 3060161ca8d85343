// Package cli renders recommendation and status responses for the Osusume CLI.
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/hyperjump/osusume/internal/models"
	"github.com/hyperjump/osusume/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputCompact is one tab-separated line per result.
	OutputCompact OutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat parses a --output flag value. Empty means text.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return OutputText, nil
	case OutputText, OutputCompact, OutputJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, compact or json)", s)
	}
}

// WriteJSON writes v to w as indented JSON.
func WriteJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteRecommendations writes a recommendation response to w in the given format.
// Unknown formats are written as text.
func WriteRecommendations(w io.Writer, resp *models.RecommendResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return WriteJSON(w, resp)
	case OutputCompact:
		for _, r := range resp.Results {
			fmt.Fprintf(w, "%d\t%d\t%.4f\t%s\t%s\n",
				r.Rank, r.Product.ID, r.Score, r.Product.Name, r.Product.Category)
		}
		return nil
	default:
		writeRecommendationsText(w, resp)
		return nil
	}
}

func describeQuery(resp *models.RecommendResponse) string {
	switch resp.Kind {
	case models.KindProduct:
		if len(resp.ProductIDs) == 1 {
			return fmt.Sprintf("similar to product %d", resp.ProductIDs[0])
		}
	case models.KindCart:
		return fmt.Sprintf("similar to cart %v", resp.ProductIDs)
	case models.KindSearch:
		return fmt.Sprintf("matching %q", resp.Query)
	}
	return resp.Kind
}

func writeRecommendationsText(w io.Writer, resp *models.RecommendResponse) {
	fmt.Fprintf(w, "\nFound %d recommendations %s in %dms (generation %d)\n",
		resp.Total, describeQuery(resp), resp.QueryTime, resp.Generation)
	if resp.Fallback {
		fmt.Fprintln(w, "Catalog not loaded yet: showing products from the same category")
	}
	if resp.CorrectedQuery != "" {
		fmt.Fprintf(w, "Showing results for %q\n", resp.CorrectedQuery)
	}
	fmt.Fprintln(w)
	for _, r := range resp.Results {
		writeOneResult(w, r)
	}
}

func writeOneResult(w io.Writer, r *models.Recommendation) {
	p := r.Product
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
	fmt.Fprintf(w, "Rank: %d | Score: %.4f\n", r.Rank, r.Score)
	fmt.Fprintf(w, "ID: %d\n", p.ID)
	fmt.Fprintf(w, "Name: %s\n", p.Name)
	if p.Category != "" {
		fmt.Fprintf(w, "Category: %s\n", p.Category)
	}
	fmt.Fprintf(w, "Price: %.2f | Rating: %.1f\n", p.Price, p.Rating)
	if p.Description != "" {
		fmt.Fprintf(w, "\n%s\n", TruncateWords(utils.Truncate(p.Description, 200), 40))
	}
	fmt.Fprintln(w)
}

// PrintRecommendations prints a response to stdout in text format.
func PrintRecommendations(resp *models.RecommendResponse) {
	_ = WriteRecommendations(os.Stdout, resp, OutputText)
}

// WriteStatus writes a status response to w. Compact is treated as text.
func WriteStatus(w io.Writer, st *models.StatusResponse, format OutputFormat) error {
	if format == OutputJSON {
		return WriteJSON(w, st)
	}
	c := st.Catalog
	if c.Ready {
		fmt.Fprintf(w, "Catalog:          generation %d (%s)\n", c.Generation, c.BuildID)
		fmt.Fprintf(w, "Built at:         %s\n", c.BuiltAt.Format("2006-01-02 15:04:05"))
	} else {
		fmt.Fprintf(w, "Catalog:          not loaded\n")
	}
	fmt.Fprintf(w, "Indexed products: %d\n", c.Products)
	fmt.Fprintf(w, "Vocabulary size:  %d\n", c.VocabularySize)
	fmt.Fprintf(w, "Stored products:  %d\n", st.StoredProducts)
	fmt.Fprintf(w, "Disk usage:       %s\n", FormatBytes(st.DiskUsageBytes))
	if st.BreakerState != "" {
		fmt.Fprintf(w, "Source breaker:   %s\n", st.BreakerState)
	}
	fmt.Fprintf(w, "Database:         %s\n", st.Config.DatabasePath)
	if st.Config.ImportPath != "" {
		fmt.Fprintf(w, "Import file:      %s (watch: %t)\n", st.Config.ImportPath, st.Config.Watch)
	}
	fmt.Fprintf(w, "Limits:           default %d, max %d, min score %.2f\n",
		st.Config.DefaultLimit, st.Config.MaxLimit, st.Config.MinScore)
	return nil
}

// FormatBytes renders n bytes with a binary unit suffix.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// TruncateWords returns up to maxWords from the space-separated string.
func TruncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ") + "..."
}
