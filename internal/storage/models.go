package storage

import (
	"database/sql"
)

type ExportJob struct {
	ID        string
	Year      int64
	Target    string
	Status    string
	Attempts  int64
	Ref       string
	LastError string
	CreatedAt sql.NullTime
	UpdatedAt sql.NullTime
}

type MonthlyGoal struct {
	ProducerID   string
	ProducerName string
	Year         int64
	Jan          int64
	Fev          int64
	Mar          int64
	Abr          int64
	Mai          int64
	Jun          int64
	Jul          int64
	Ago          int64
	Set          int64
	Out          int64
	Nov          int64
	Dez          int64
}

type Producer struct {
	ID   string
	Name string
}

type Quote struct {
	ID           int64
	Cnpj         string
	ClientName   string
	Branch       string
	Insurer      string
	ProducerID   string
	PremiumCents int64
	Status       string
	QuoteDate    string
}
