package anonymization

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/inferloop/fairml/pkg/models"
)

// rewriteRows produces the anonymized dataset: every row is copied fresh
// into a pre-sized output, its quasi-identifier columns overwritten with
// the representatives of its cell. Non-quasi-identifier columns and row
// and column order pass through untouched.
func rewriteRows(ds *models.Dataset, assignments []int, cells map[int]*Cell, kinds []models.ValueKind) *models.Dataset {
	out := &models.Dataset{
		Features: append([]string(nil), ds.Features...),
		Rows:     make([][]models.Value, ds.NumRows()),
	}
	for r, row := range ds.Rows {
		fresh := make([]models.Value, len(row))
		copy(fresh, row)
		cell := cells[assignments[r]]
		for col, rep := range cell.Representatives {
			fresh[col] = coerce(rep, kinds[col])
		}
		out.Rows[r] = fresh
	}
	return out
}

// coerce converts a representative back to the input column's kind.
func coerce(v models.Value, kind models.ValueKind) models.Value {
	if v.Kind == kind {
		return v
	}
	if kind == models.ValueNumeric {
		if f, err := strconv.ParseFloat(v.Label, 64); err == nil {
			return models.Number(f)
		}
		return v
	}
	return models.Category(v.String())
}

// VerifyKAnonymity recomputes the equivalence classes of a dataset from the
// joint values of its quasi-identifier columns and reports whether every
// class holds at least k rows.
func VerifyKAnonymity(ds *models.Dataset, quasiIdentifiers []string, k int) (bool, error) {
	qi := make([]int, 0, len(quasiIdentifiers))
	for _, name := range quasiIdentifiers {
		idx := ds.FeatureIndex(name)
		if idx < 0 {
			return false, fmt.Errorf("quasi-identifier %q is not a dataset feature", name)
		}
		qi = append(qi, idx)
	}

	classes := make(map[string]int)
	for _, row := range ds.Rows {
		var key strings.Builder
		for _, col := range qi {
			key.WriteString(row[col].String())
			key.WriteByte('\x1f')
		}
		classes[key.String()]++
	}

	for key, size := range classes {
		if size < k {
			return false, fmt.Errorf("equivalence class %q has size %d, less than k=%d",
				strings.ReplaceAll(key, "\x1f", "|"), size, k)
		}
	}
	return true, nil
}
