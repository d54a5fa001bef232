package ddl

import (
	"strings"
	"testing"

	gddl "banketl/internal/ddl"
)

func TestQuoteIdent(t *testing.T) {
	t.Parallel()
	tests := []struct{ in, want string }{
		{"name", "[name]"},
		{"weird]id", "[weird]]id]"},
		{"with space", "[with space]"},
	}
	for _, tt := range tests {
		if got := quoteIdent(tt.in); got != tt.want {
			t.Errorf("quoteIdent(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBankTableSQL(t *testing.T) {
	t.Parallel()
	def := gddl.BankTable("dbo.Largest_banks")

	create, err := Dialect.CreateTableSQL(def)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"CREATE TABLE [dbo].[Largest_banks] (",
		"[Name] NVARCHAR(MAX) NOT NULL",
		"[MC_INR_Billion] FLOAT NOT NULL",
	} {
		if !strings.Contains(create, want) {
			t.Errorf("create SQL missing %q:\n%s", want, create)
		}
	}

	drop, _ := Dialect.DropTableSQL(def)
	want := "IF OBJECT_ID(N'[dbo].[Largest_banks]', N'U') IS NOT NULL DROP TABLE [dbo].[Largest_banks]"
	if drop != want {
		t.Fatalf("DropTableSQL() = %q, want %q", drop, want)
	}
}

func TestDropEscapesQuotes(t *testing.T) {
	t.Parallel()
	drop, _ := Dialect.DropTableSQL(gddl.TableDef{FQN: "o'brien"})
	if !strings.Contains(drop, "N'[o''brien]'") {
		t.Fatalf("DropTableSQL() = %q", drop)
	}
}

func TestMapType(t *testing.T) {
	t.Parallel()
	if got := MapType(gddl.TypeFloat); got != "FLOAT" {
		t.Errorf("MapType(float) = %q", got)
	}
	if got := MapType(""); got != "NVARCHAR(MAX)" {
		t.Errorf("MapType(\"\") = %q", got)
	}
}
