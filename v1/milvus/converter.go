package milvus

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"github.com/piercefreeman/vectordb-orm/v1/backend"
	"github.com/piercefreeman/vectordb-orm/v1/expr"
	"github.com/piercefreeman/vectordb-orm/v1/schema"
)

// buildCollectionSchema translates the canonical schema into Milvus field
// and collection definitions. Primary keys become auto-ID int64 fields so
// the engine assigns identifiers.
func buildCollectionSchema(sch *schema.Schema) (*entity.Schema, error) {
	ms := entity.NewSchema().WithName(sch.Collection()).WithAutoID(true)

	for _, f := range sch.Fields() {
		if f.Kind().Vector() && f.Spec().Dim() > maxVectorDim {
			return nil, fmt.Errorf("%w: milvus caps vector dimensionality at %d, field %q declares %d",
				backend.ErrTranslation, maxVectorDim, f.Name(), f.Spec().Dim())
		}
		mf := entity.NewField().WithName(f.Name())
		switch f.Kind() {
		case schema.KindPrimaryKey:
			mf.WithDataType(entity.FieldTypeInt64).WithIsPrimaryKey(true).WithIsAutoID(true)
		case schema.KindVarChar:
			mf.WithDataType(entity.FieldTypeVarChar).WithMaxLength(int64(f.Spec().MaxLength()))
		case schema.KindInt64:
			mf.WithDataType(entity.FieldTypeInt64)
		case schema.KindFloat64:
			mf.WithDataType(entity.FieldTypeDouble)
		case schema.KindFloatVector:
			mf.WithDataType(entity.FieldTypeFloatVector).WithDim(int64(f.Spec().Dim()))
		case schema.KindBinaryVector:
			mf.WithDataType(entity.FieldTypeBinaryVector).WithDim(int64(f.Spec().Dim()))
		default:
			return nil, fmt.Errorf("%w: milvus cannot store %s fields", backend.ErrTranslation, f.Kind())
		}
		ms.WithField(mf)
	}
	return ms, nil
}

// buildIndex translates a canonical index configuration into the SDK's
// typed index constructors.
func buildIndex(idx schema.Index) (entity.Index, error) {
	metric, err := metricType(idx.Metric())
	if err != nil {
		return nil, err
	}
	params := idx.Params()

	switch idx.Kind() {
	case schema.IndexFlat:
		return entity.NewIndexFlat(metric)
	case schema.IndexIVFFlat:
		return entity.NewIndexIvfFlat(metric, params["nlist"].(int))
	case schema.IndexIVFSQ8:
		return entity.NewIndexIvfSQ8(metric, params["nlist"].(int))
	case schema.IndexIVFPQ:
		return entity.NewIndexIvfPQ(metric, params["nlist"].(int), params["m"].(int), params["nbits"].(int))
	case schema.IndexHNSW:
		return entity.NewIndexHNSW(metric, params["M"].(int), params["efConstruction"].(int))
	case schema.IndexBinFlat:
		return entity.NewIndexBinFlat(metric, defaultBinFlatNlist)
	case schema.IndexBinIVFFlat:
		return entity.NewIndexBinIvfFlat(metric, params["nlist"].(int))
	}
	return nil, fmt.Errorf("%w: milvus does not support index kind %q", backend.ErrTranslation, idx.Kind())
}

// searchParam picks the query-time parameters matching the field's index.
func searchParam(idx schema.Index, topK int) (entity.SearchParam, error) {
	switch idx.Kind() {
	case schema.IndexFlat:
		return entity.NewIndexFlatSearchParam()
	case schema.IndexIVFFlat:
		return entity.NewIndexIvfFlatSearchParam(defaultNprobe)
	case schema.IndexIVFSQ8:
		return entity.NewIndexIvfSQ8SearchParam(defaultNprobe)
	case schema.IndexIVFPQ:
		return entity.NewIndexIvfPQSearchParam(defaultNprobe)
	case schema.IndexHNSW:
		ef := topK
		if ef < defaultHNSWEf {
			ef = defaultHNSWEf
		}
		return entity.NewIndexHNSWSearchParam(ef)
	case schema.IndexBinFlat:
		return entity.NewIndexBinFlatSearchParam(defaultNprobe)
	case schema.IndexBinIVFFlat:
		return entity.NewIndexBinIvfFlatSearchParam(defaultNprobe)
	}
	return nil, fmt.Errorf("%w: milvus does not support index kind %q", backend.ErrTranslation, idx.Kind())
}

const (
	defaultNprobe = 16
	defaultHNSWEf = 64

	// BIN_FLAT is exhaustive, but the SDK constructor still requires an
	// nlist value; any in-range one will do.
	defaultBinFlatNlist = 32

	// Engine-enforced ceiling on declared vector width.
	maxVectorDim = 32768
)

func metricType(m schema.Metric) (entity.MetricType, error) {
	switch m {
	case schema.MetricL2:
		return entity.L2, nil
	case schema.MetricIP:
		return entity.IP, nil
	case schema.MetricCosine:
		return entity.COSINE, nil
	case schema.MetricJaccard:
		return entity.JACCARD, nil
	case schema.MetricTanimoto:
		return entity.TANIMOTO, nil
	case schema.MetricHamming:
		return entity.HAMMING, nil
	}
	return "", fmt.Errorf("%w: milvus does not support metric %q", backend.ErrTranslation, m)
}

// compileExpr renders the expression tree in Milvus's boolean expression
// grammar, e.g. `text == "bar" and visits > 10`. Milvus supports the full
// comparison surface, so only malformed literals can fail here.
func compileExpr(n expr.Node) (string, error) {
	switch v := n.(type) {
	case nil:
		return "", nil
	case *expr.Comparison:
		lit, err := compileLiteral(v.Value)
		if err != nil {
			return "", fmt.Errorf("field %q: %w", v.Field, err)
		}
		return fmt.Sprintf("%s %s %s", v.Field, v.Op, lit), nil
	case *expr.Conjunction:
		return compileLogical(v.Operands, " and ")
	case *expr.Disjunction:
		return compileLogical(v.Operands, " or ")
	}
	return "", fmt.Errorf("%w: unknown expression node %T", backend.ErrTranslation, n)
}

func compileLogical(operands []expr.Node, sep string) (string, error) {
	parts := make([]string, 0, len(operands))
	for _, op := range operands {
		s, err := compileExpr(op)
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}
	return "(" + strings.Join(parts, sep) + ")", nil
}

func compileLiteral(v any) (string, error) {
	switch lit := v.(type) {
	case string:
		return strconv.Quote(lit), nil
	case int:
		return strconv.FormatInt(int64(lit), 10), nil
	case int64:
		return strconv.FormatInt(lit, 10), nil
	case float32:
		return strconv.FormatFloat(float64(lit), 'g', -1, 64), nil
	case float64:
		return strconv.FormatFloat(lit, 'g', -1, 64), nil
	}
	return "", fmt.Errorf("%w: literal type %T has no expression form", backend.ErrTranslation, v)
}

// pkInExpr renders the delete-by-id predicate, e.g. `id in [1, 2, 3]`.
func pkInExpr(pkName string, ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return fmt.Sprintf("%s in [%s]", pkName, strings.Join(parts, ", "))
}

// buildColumns lays out instances column-wise for the bulk insert path.
// Vector columns keep the declared dimensionality; the auto-ID primary key
// is omitted.
func buildColumns(sch *schema.Schema, rows []map[string]any) ([]entity.Column, error) {
	var cols []entity.Column
	for _, f := range sch.Fields() {
		switch f.Kind() {
		case schema.KindPrimaryKey:
			continue
		case schema.KindVarChar:
			data := make([]string, len(rows))
			for i, row := range rows {
				data[i] = row[f.Name()].(string)
			}
			cols = append(cols, entity.NewColumnVarChar(f.Name(), data))
		case schema.KindInt64:
			data := make([]int64, len(rows))
			for i, row := range rows {
				data[i] = row[f.Name()].(int64)
			}
			cols = append(cols, entity.NewColumnInt64(f.Name(), data))
		case schema.KindFloat64:
			data := make([]float64, len(rows))
			for i, row := range rows {
				data[i] = row[f.Name()].(float64)
			}
			cols = append(cols, entity.NewColumnDouble(f.Name(), data))
		case schema.KindFloatVector:
			data := make([][]float32, len(rows))
			for i, row := range rows {
				data[i] = row[f.Name()].([]float32)
			}
			cols = append(cols, entity.NewColumnFloatVector(f.Name(), f.Spec().Dim(), data))
		case schema.KindBinaryVector:
			data := make([][]byte, len(rows))
			for i, row := range rows {
				data[i] = row[f.Name()].([]byte)
			}
			cols = append(cols, entity.NewColumnBinaryVector(f.Name(), f.Spec().Dim(), data))
		default:
			return nil, fmt.Errorf("%w: milvus cannot store %s fields", backend.ErrTranslation, f.Kind())
		}
	}
	return cols, nil
}

// outputFields lists the columns fetched on reads: the primary key plus
// every scalar. Vectors are excluded from result sets; fetch them through
// a dedicated query if needed.
func outputFields(sch *schema.Schema) []string {
	fields := []string{sch.PrimaryKey().Name()}
	for _, f := range sch.ScalarFields() {
		fields = append(fields, f.Name())
	}
	return fields
}

// decodeRow reads one row from a set of result columns into an instance.
func decodeRow(sch *schema.Schema, getColumn func(name string) entity.Column, row int) (*schema.Instance, error) {
	inst := sch.NewInstance()

	pkCol := getColumn(sch.PrimaryKey().Name())
	if pkCol != nil {
		id, err := pkCol.GetAsInt64(row)
		if err != nil {
			return nil, fmt.Errorf("decode primary key: %w", err)
		}
		inst.SetID(id)
	}

	for _, f := range sch.ScalarFields() {
		col := getColumn(f.Name())
		if col == nil {
			continue
		}
		var (
			val any
			err error
		)
		switch f.Kind() {
		case schema.KindVarChar:
			val, err = col.GetAsString(row)
		case schema.KindInt64:
			val, err = col.GetAsInt64(row)
		case schema.KindFloat64:
			val, err = col.GetAsDouble(row)
		}
		if err != nil {
			return nil, fmt.Errorf("decode field %q: %w", f.Name(), err)
		}
		if err := inst.Set(f.Name(), val); err != nil {
			return nil, err
		}
	}
	return inst, nil
}
