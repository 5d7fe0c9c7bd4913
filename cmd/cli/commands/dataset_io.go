package commands

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/inferloop/fairml/pkg/models"
)

// loadCSV reads a headed CSV file into a dataset, splitting out the target
// column. Cells that parse as floats become numeric values, everything else
// becomes categorical.
func loadCSV(path, targetColumn string) (*models.Dataset, []models.Value, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}

	targetIdx := -1
	features := make([]string, 0, len(header))
	for i, name := range header {
		if name == targetColumn {
			targetIdx = i
			continue
		}
		features = append(features, name)
	}
	if targetIdx < 0 {
		return nil, nil, fmt.Errorf("target column %q not found in header", targetColumn)
	}

	dataset := models.NewDataset(features)
	var target []models.Value
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		row := make([]models.Value, 0, len(features))
		for i, cell := range record {
			if i == targetIdx {
				target = append(target, parseValue(cell))
				continue
			}
			row = append(row, parseValue(cell))
		}
		dataset.Rows = append(dataset.Rows, row)
	}
	return dataset, target, nil
}

// loadCSVAllColumns reads a headed CSV file with every column as a feature.
func loadCSVAllColumns(path string) (*models.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	dataset := models.NewDataset(header)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make([]models.Value, len(record))
		for i, cell := range record {
			row[i] = parseValue(cell)
		}
		dataset.Rows = append(dataset.Rows, row)
	}
	return dataset, nil
}

func parseValue(cell string) models.Value {
	if f, err := strconv.ParseFloat(cell, 64); err == nil {
		return models.Number(f)
	}
	return models.Category(cell)
}

// writeCSV writes a dataset as a headed CSV file; "-" writes to stdout.
func writeCSV(path string, ds *models.Dataset) error {
	var out io.Writer = os.Stdout
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	writer := csv.NewWriter(out)
	if err := writer.Write(ds.Features); err != nil {
		return err
	}
	record := make([]string, ds.NumFeatures())
	for _, row := range ds.Rows {
		for i, v := range row {
			record[i] = v.String()
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
