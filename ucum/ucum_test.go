package ucum_test

import (
	"testing"

	"github.com/brimdata/cql/ucum"
	"github.com/stretchr/testify/assert"
)

func TestValidUnits(t *testing.T) {
	for _, unit := range []string{
		"", "1", "mg", "mg/dL", "kg/m2", "mm[Hg]", "cm[H2O]", "/min",
		"10*3/uL", "%", "mg{creat}", "{beats}/min", "[lb_av]", "mmol/L",
		"m.s-2", "(kg.m)/s2", "days", "year", "[IU]/L", "ug",
	} {
		assert.NoError(t, ucum.Default.Validate(unit), unit)
	}
}

func TestInvalidUnits(t *testing.T) {
	for unit, msg := range map[string]string{
		"foo":    `Invalid UCUM unit "foo": unknown unit "foo".`,
		"mg/":    `Invalid UCUM unit "mg/": missing unit.`,
		"(mg":    `Invalid UCUM unit "(mg": unbalanced parenthesis.`,
		"mg{abc": `Invalid UCUM unit "mg{abc": unterminated annotation.`,
		"kg)":    `Invalid UCUM unit "kg)": unexpected ")".`,
		"xmg/dL": `Invalid UCUM unit "xmg/dL": unknown unit "xmg".`,
	} {
		assert.EqualError(t, ucum.Default.Validate(unit), msg, unit)
	}
}
