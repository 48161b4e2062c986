package utils

import (
	"fmt"
	"time"
)

const DateLayout = "2006-01-02"

// ParseDate aceita "2006-01-02" ou RFC3339 (com ou sem fração de segundos) e devolve a data em UTC.
// dateOnly indica que a string não trazia horário.
func ParseDate(dateStr string) (date time.Time, dateOnly bool, err error) {
	if incomingDate, err := time.Parse(DateLayout, dateStr); err == nil {
		return incomingDate.UTC(), true, nil
	}

	incomingDate, err := time.Parse(time.RFC3339Nano, dateStr)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("data inválida %q: use AAAA-MM-DD ou RFC3339", dateStr)
	}

	return incomingDate.UTC(), false, nil
}

// EndOfDay devolve o último microssegundo do dia UTC de t, a precisão do timestamptz
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1).Add(-time.Microsecond)
}
