package prep

import (
	"regact/domain/omics"
)

// Prepare runs the shared pipeline end to end: matrix validation, network
// formatting, size filtering, alignment. Every scoring method goes through
// this same path, standalone or orchestrated.
func Prepare(m *omics.Matrix, tbl *omics.Table, cols omics.ColumnMap, minSize int) (*Aligned, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	net, err := NetworkFormatter{Columns: cols}.Format(tbl)
	if err != nil {
		return nil, err
	}
	filtered, err := SizeFilter{MinSize: minSize}.Apply(net, m.Features)
	if err != nil {
		return nil, err
	}
	return MatrixAligner{}.Align(m, filtered), nil
}
