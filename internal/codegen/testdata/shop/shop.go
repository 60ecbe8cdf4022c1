package shop

import (
	"strings"
	"time"

	"github.com/leapstack-labs/leapmodel/pkg/core"
)

type Audited struct {
	CreatedBy string `model:"readonly"`
	UpdatedBy string
}

type Money struct {
	Units    int64
	Currency string
}

func (m Money) Equal(o Money) bool {
	return m.Units == o.Units && strings.EqualFold(m.Currency, o.Currency)
}

type Status string

type ledger struct{ entries []string }

// Customer is a customer record.
//
//modelgen:contract
type Customer struct {
	ID      int64 `model:"readonly"`
	Name    string
	Email   string        `model:"name=email_address"`
	Age     int           `default:"18"`
	Timeout time.Duration `default:"1m30s"`
	Labels  []string      `default:"a,b"`
	Status  Status        `default:"new"`
	Balance Money
	Tags    map[string]string `model:"singleton"`
	Ledger  *ledger           `model:"singleton,factory=NewLedger"`
	Display string            `model:"extension,readonly"`
	Code    string            `model:"extension"`
	Ignored string            `model:"-"`
	Audited
	core.NotifyPropertyChanged
}

func (Customer) GetDisplay(m core.Model) string {
	v, _ := m.TryGetValue("Name")
	s, _ := v.(string)
	return strings.ToUpper(s)
}

func (Customer) GetCode(_ core.Model, current string) string {
	return current
}

func (Customer) SetCode(_ core.Model, current, value string) (string, bool) {
	value = strings.ToLower(value)
	return value, value != current
}

func (Customer) NewLedger() *ledger {
	return &ledger{}
}

// Wide has more properties than fit in 64 bits.
type Wide struct {
	P00, P01, P02, P03, P04, P05, P06, P07, P08, P09 int
	P10, P11, P12, P13, P14, P15, P16, P17, P18, P19 int
	P20, P21, P22, P23, P24, P25, P26, P27, P28, P29 int
	P30, P31, P32, P33, P34, P35, P36, P37, P38, P39 int
	P40, P41, P42, P43, P44, P45, P46, P47, P48, P49 int
	P50, P51, P52, P53, P54, P55, P56, P57, P58, P59 int
	P60, P61, P62, P63, P64                          int
}

type Unmarked struct {
	A int
}
