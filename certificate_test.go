package papilo

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVeriPBCertificateInitWritesOneConstraintPerFiniteSide(t *testing.T) {
	p := buildTestProblem()
	var buf bytes.Buffer
	cert := NewVeriPBCertificate[F64](&buf, []string{"x0", "x1", "x2"})

	require.NoError(t, cert.Init(p))
	out := buf.String()
	assert.Contains(t, out, "pseudo-Boolean proof version 1.2")
	assert.Contains(t, out, "x0")
	assert.Contains(t, out, "x1")
	assert.Equal(t, 2, strings.Count(out, "\no "), "two rows, each with only a finite rhs")
}

// This pins down the Open Question #1 fix: the source's update_row prints a
// single fixed column's name for every term in the row, regardless of which
// column that term actually belongs to. This test fails if that bug is
// reintroduced.
func TestUpdateRowPrintsEachTermsOwnVariableName(t *testing.T) {
	p := buildTestProblem()
	var buf bytes.Buffer
	cert := NewVeriPBCertificate[F64](&buf, []string{"x0", "x1", "x2"})
	require.NoError(t, cert.Init(p))
	buf.Reset()

	require.NoError(t, cert.UpdateRow(0, p))
	out := buf.String()

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.NotEmpty(t, lines)
	terms := lines[0]
	assert.Contains(t, terms, "x0")
	assert.Contains(t, terms, "x1")
}

func TestSubstituteEmitsEveryEqualityRowTerm(t *testing.T) {
	p := buildTestProblem()
	var buf bytes.Buffer
	cert := NewVeriPBCertificate[F64](&buf, []string{"x0", "x1", "x2"})
	require.NoError(t, cert.Init(p))
	buf.Reset()

	require.NoError(t, cert.Substitute(1, 1, p))
	out := buf.String()
	assert.Contains(t, out, "x1")
	assert.Contains(t, out, "x2")
	assert.Contains(t, out, "substitute")
}

func TestMarkRowRedundantDeletesBothSides(t *testing.T) {
	p := buildTestProblem()
	p.SetRowLhs(0, F64(-10))
	var buf bytes.Buffer
	cert := NewVeriPBCertificate[F64](&buf, []string{"x0", "x1", "x2"})
	require.NoError(t, cert.Init(p))
	buf.Reset()

	require.NoError(t, cert.MarkRowRedundant(0))
	out := buf.String()
	assert.Contains(t, out, "del id")
	assert.Equal(t, 2, strings.Count(out, "del id"))
}

func TestNoopCertificateNeverErrors(t *testing.T) {
	var c NoopCertificate[F64]
	p := buildTestProblem()
	assert.NoError(t, c.Init(p))
	assert.NoError(t, c.ChangeRHS(0, 1))
	assert.NoError(t, c.UpdateRow(0, p))
	assert.NoError(t, c.Sparsify(0, 1, 1, p))
	assert.NoError(t, c.Substitute(0, 0, p))
	assert.NoError(t, c.FixedCol(0, 1))
	assert.NoError(t, c.Compress(nil, nil))
	assert.NoError(t, c.Close())
}
