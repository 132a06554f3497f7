package utils

import (
	"encoding/csv"
	"io"
)

// ParseCSV reads a whole sheet into rows. Ragged rows are an error;
// vendor punch exports are rectangular.
func ParseCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	return records, nil
}
