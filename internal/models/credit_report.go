// internal/models/credit_report.go
package models

// CreditReport is the bureau report for one individual. The analysis core only reads it.
type CreditReport struct {
	ClientID   string       `json:"clientId"`
	Name       string       `json:"name"`
	Mobile     string       `json:"mobile,omitempty"`
	PAN        string       `json:"pan,omitempty"`
	Gender     string       `json:"gender,omitempty"`
	DOB        string       `json:"dob,omitempty"`
	ReportDate string       `json:"reportDate,omitempty"`
	Accounts   []Account    `json:"accounts"`
	Enquiries  []Enquiry    `json:"enquiries,omitempty"`
	Employment []Employment `json:"employment,omitempty"`
	Addresses  []Address    `json:"addresses,omitempty"`
}

type Account struct {
	AccountNumber        string          `json:"accountNumber,omitempty"`
	Type                 string          `json:"type"`
	Lender               string          `json:"lender"`
	OpenedDate           string          `json:"openedDate,omitempty"`
	ClosedDate           string          `json:"closedDate,omitempty"`
	LastReportedDate     string          `json:"lastReportedDate,omitempty"`
	CurrentBalance       float64         `json:"currentBalance"`
	CreditLimit          float64         `json:"creditLimit"`
	SanctionedAmount     float64         `json:"sanctionedAmount,omitempty"`
	OverdueAmount        float64         `json:"overdueAmount"`
	EMIAmount            float64         `json:"emiAmount,omitempty"`
	FacilityStatusCode   string          `json:"facilityStatusCode,omitempty"`
	PaymentHistory       string          `json:"paymentHistory,omitempty"`
	PaymentStatusHistory []MonthlyStatus `json:"paymentStatusHistory,omitempty"`
}

// MonthlyStatus is one entry of a structured payment history.
type MonthlyStatus struct {
	Date   string `json:"date"`
	Status string `json:"status"`
}

type Enquiry struct {
	Date    string  `json:"date"`
	Lender  string  `json:"lender"`
	Purpose string  `json:"purpose,omitempty"`
	Amount  float64 `json:"amount,omitempty"`
}

type Employment struct {
	OccupationCode string  `json:"occupationCode,omitempty"`
	EmployerName   string  `json:"employerName,omitempty"`
	MonthlyIncome  float64 `json:"monthlyIncome,omitempty"`
	DateReported   string  `json:"dateReported,omitempty"`
}

type Address struct {
	Line     string `json:"line"`
	State    string `json:"state,omitempty"`
	Pincode  string `json:"pincode,omitempty"`
	Category string `json:"category,omitempty"`
}

// IsClosed reports whether the bureau marked the account closed.
func (a Account) IsClosed() bool {
	return a.ClosedDate != ""
}
