package ddl

import "banketl/internal/bank"

// BankTable returns the definition of the bank table loaded by the pipeline.
// Column order matches bank.Table.Columns.
func BankTable(fqn string) TableDef {
	return TableDef{
		FQN: fqn,
		Columns: []ColumnDef{
			{Name: bank.ColName, Type: TypeText},
			{Name: bank.ColUSD, Type: TypeFloat},
			{Name: bank.ColGBP, Type: TypeFloat},
			{Name: bank.ColEUR, Type: TypeFloat},
			{Name: bank.ColINR, Type: TypeFloat},
		},
	}
}
