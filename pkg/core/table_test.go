package core

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func usersTable() *Table {
	return &Table{
		Name: "users",
		Columns: []*Column{
			{Name: "id", DType: DTypeInt, Values: []any{int64(1), int64(2), int64(3)}},
			{Name: "team_id", DType: DTypeInt, Values: []any{int64(10), nil, int64(10)}},
			{Name: "age", DType: DTypeInt, Values: []any{int64(31), int64(22), int64(45)}},
			{Name: "joined", DType: DTypeTimestamp, Values: []any{
				time.Unix(100, 0), time.Unix(200, 0), time.Unix(300, 0),
			}},
		},
		PrimaryKey:  "id",
		ForeignKeys: []ForeignKey{{Column: "team_id", Table: "teams"}},
		TimeColumn:  "joined",
	}
}

func TestTable_FeatureColumns(t *testing.T) {
	tbl := usersTable()

	feat := tbl.FeatureColumns()

	assert.Equal(t, []string{"age", "joined"}, feat.ColumnNames())
	assert.Equal(t, 3, feat.NumRows())
	assert.Equal(t, "joined", feat.TimeColumn)
	// source table is untouched
	assert.Len(t, tbl.Columns, 4)
}

func TestTable_FeatureColumns_KeysOnly(t *testing.T) {
	tbl := &Table{
		Name: "tags",
		Columns: []*Column{
			{Name: "id", DType: DTypeInt, Values: []any{int64(1), int64(2), int64(3)}},
			{Name: "user_id", DType: DTypeInt, Values: []any{int64(1), nil, int64(1)}},
		},
		PrimaryKey:  "id",
		ForeignKeys: []ForeignKey{{Column: "user_id", Table: "users"}},
	}

	feat := tbl.FeatureColumns()

	assert.Empty(t, feat.Columns)
	assert.Equal(t, 3, feat.NumRows())
	require.NoError(t, feat.Validate())
	assert.Equal(t, 0, (&Table{Name: "empty"}).NumRows())
}

func TestTable_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(tbl *Table)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(_ *Table) {},
		},
		{
			name: "ragged columns",
			mutate: func(tbl *Table) {
				tbl.Columns[2].Values = tbl.Columns[2].Values[:2]
			},
			wantErr: "column age has 2 values",
		},
		{
			name: "duplicate primary key",
			mutate: func(tbl *Table) {
				tbl.Columns[0].Values[2] = int32(1)
			},
			wantErr: "duplicate primary key",
		},
		{
			name: "null primary key",
			mutate: func(tbl *Table) {
				tbl.Columns[0].Values[1] = nil
			},
			wantErr: "null primary key",
		},
		{
			name: "missing time column",
			mutate: func(tbl *Table) {
				tbl.TimeColumn = "created_at"
			},
			wantErr: "time column created_at not found",
		},
		{
			name: "missing foreign key column",
			mutate: func(tbl *Table) {
				tbl.ForeignKeys = append(tbl.ForeignKeys, ForeignKey{Column: "org_id", Table: "orgs"})
			},
			wantErr: "foreign key column org_id not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := usersTable()
			tt.mutate(tbl)

			err := tbl.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestKeyOf(t *testing.T) {
	assert.Equal(t, KeyOf(int64(7)), KeyOf(int32(7)))
	assert.Equal(t, KeyOf(int64(7)), KeyOf(7.0))
	assert.Equal(t, 7.5, KeyOf(7.5))
	assert.Equal(t, "abc", KeyOf([]byte("abc")))
	assert.Equal(t, "abc", KeyOf("abc"))
	assert.Equal(t, KeyOf(int64(7)), KeyOf(uint64(7)))
	assert.Equal(t, KeyOf(int64(7)), KeyOf(uint(7)))
}

func TestKeyOf_LargeUnsigned(t *testing.T) {
	big := uint64(math.MaxInt64) + 1

	assert.Equal(t, big, KeyOf(big))
	assert.NotEqual(t, KeyOf(int64(math.MinInt64)), KeyOf(big))
	assert.NotEqual(t, KeyOf(int64(-1)), KeyOf(uint64(math.MaxUint64)))
	assert.Equal(t, int64(math.MaxInt64), KeyOf(uint64(math.MaxInt64)))
}

func TestTimeWindow(t *testing.T) {
	w := TimeWindow{Offset: time.Unix(100, 0), Cutoff: time.Unix(120, 0)}

	assert.Equal(t, 20*time.Second, w.Size())
	assert.True(t, w.Contains(time.Unix(100, 0)))
	assert.True(t, w.Contains(time.Unix(119, 0)))
	assert.False(t, w.Contains(time.Unix(120, 0)))
}
