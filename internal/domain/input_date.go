package domain

import (
	"time"

	"github.com/vfg2006/sales-tracker-api/pkg/utils"
)

// InputDate aceita "AAAA-MM-DD" ou RFC3339 no corpo da requisição
type InputDate struct {
	time.Time
}

func NewInputDate(t time.Time) *InputDate {
	return &InputDate{Time: t.UTC()}
}

func (d *InputDate) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	parsed, _, err := utils.ParseDate(raw)
	if err != nil {
		return err
	}

	d.Time = parsed
	return nil
}

func (d InputDate) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Time)
}
