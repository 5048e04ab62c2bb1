// Package export renders schedules for downstream consumers.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"sort"
	"strconv"

	"github.com/medrota/rosterd/core/model"
)

// WriteJSON writes the schedule to w in JSON format.
func WriteJSON(w io.Writer, s model.Schedule) error {
	enc := json.NewEncoder(w)
	return enc.Encode(s)
}

// WriteCSV writes the schedule to w in CSV format, one assignment per row
// ordered by day then shift row.
func WriteCSV(w io.Writer, s model.Schedule) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"day", "row_id", "person_id"}); err != nil {
		return err
	}
	assigns := append([]model.Assignment(nil), s.Assignments...)
	sort.Slice(assigns, func(i, j int) bool {
		if assigns[i].Day != assigns[j].Day {
			return assigns[i].Day < assigns[j].Day
		}
		return assigns[i].RowID < assigns[j].RowID
	})
	for _, a := range assigns {
		rec := []string{
			strconv.Itoa(a.Day),
			a.RowID,
			a.PersonID,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
