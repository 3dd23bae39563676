// 包 filter：查询谓词与参数解析
// 谓词可组合（And/Or），同一谓词既能在内存中匹配，也能编译为 PostgreSQL WHERE 片段
package filter

import (
	"strconv"
	"strings"

	"demsausage-api/internal/models"

	"github.com/lib/pq"
)

// Predicate：对投票点的布尔条件
type Predicate interface {
	Match(pp *models.PollingPlace) bool
	WriteSQL(q *Query)
}

// Query：累积 SQL 文本与 $n 参数
type Query struct {
	b    strings.Builder
	args []any
}

// NewQuery：args 为已占用的前置参数（例如距离查询的坐标），新参数从其后编号
func NewQuery(args ...any) *Query {
	return &Query{args: append([]any(nil), args...)}
}

// Arg：登记参数并返回占位符
func (q *Query) Arg(v any) string {
	q.args = append(q.args, v)
	return "$" + strconv.Itoa(len(q.args))
}

func (q *Query) WriteString(s string) { q.b.WriteString(s) }
func (q *Query) String() string       { return q.b.String() }
func (q *Query) Args() []any          { return q.args }

// Where：编译谓词，返回 WHERE 片段（不含关键字）与全部参数
func Where(p Predicate, leading ...any) (string, []any) {
	q := NewQuery(leading...)
	p.WriteSQL(q)
	return q.String(), q.Args()
}

// Field：可做文本匹配的列
type Field int

const (
	FieldName Field = iota
	FieldPremises
	FieldAddress
)

// TextFields：search_term 匹配的全部列，顺序即 OR 顺序
var TextFields = []Field{FieldName, FieldPremises, FieldAddress}

func (f Field) Column() string {
	switch f {
	case FieldPremises:
		return "premises"
	case FieldAddress:
		return "address"
	}
	return "name"
}

func (f Field) value(pp *models.PollingPlace) string {
	switch f {
	case FieldPremises:
		return pp.Premises
	case FieldAddress:
		return pp.Address
	}
	return pp.Name
}

type all struct{}

// All：恒真
func All() Predicate { return all{} }

func (all) Match(*models.PollingPlace) bool { return true }
func (all) WriteSQL(q *Query)               { q.WriteString("TRUE") }

type none struct{}

func (none) Match(*models.PollingPlace) bool { return false }
func (none) WriteSQL(q *Query)               { q.WriteString("FALSE") }

type and []Predicate

// And：全部成立；无参数时等价于 All
func And(ps ...Predicate) Predicate {
	var out and
	for _, p := range ps {
		switch v := p.(type) {
		case nil, all:
		case and:
			out = append(out, v...)
		default:
			out = append(out, p)
		}
	}
	switch len(out) {
	case 0:
		return All()
	case 1:
		return out[0]
	}
	return out
}

func (a and) Match(pp *models.PollingPlace) bool {
	for _, p := range a {
		if !p.Match(pp) {
			return false
		}
	}
	return true
}

func (a and) WriteSQL(q *Query) { writeJoined(q, []Predicate(a), " AND ") }

type or []Predicate

// Or：任一成立；无参数时恒假
func Or(ps ...Predicate) Predicate {
	var out or
	for _, p := range ps {
		switch v := p.(type) {
		case nil:
		case or:
			out = append(out, v...)
		default:
			out = append(out, p)
		}
	}
	switch len(out) {
	case 0:
		return none{}
	case 1:
		return out[0]
	}
	return out
}

func (o or) Match(pp *models.PollingPlace) bool {
	for _, p := range o {
		if p.Match(pp) {
			return true
		}
	}
	return false
}

func (o or) WriteSQL(q *Query) { writeJoined(q, []Predicate(o), " OR ") }

func writeJoined(q *Query, ps []Predicate, sep string) {
	q.WriteString("(")
	for i, p := range ps {
		if i > 0 {
			q.WriteString(sep)
		}
		p.WriteSQL(q)
	}
	q.WriteString(")")
}

type electionIs int

// ElectionIs：属于指定选举
func ElectionIs(id int) Predicate { return electionIs(id) }

func (e electionIs) Match(pp *models.PollingPlace) bool { return pp.ElectionID == int(e) }
func (e electionIs) WriteSQL(q *Query) {
	q.WriteString("election_id = " + q.Arg(int(e)))
}

type idIn struct {
	ids []int
	set map[int]struct{}
}

// IDIn：id 属于集合；空集合恒假
func IDIn(ids []int) Predicate {
	if len(ids) == 0 {
		return none{}
	}
	set := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return idIn{ids: ids, set: set}
}

func (p idIn) Match(pp *models.PollingPlace) bool {
	_, ok := p.set[pp.ID]
	return ok
}

func (p idIn) WriteSQL(q *Query) {
	ids := make([]int64, len(p.ids))
	for i, id := range p.ids {
		ids[i] = int64(id)
	}
	q.WriteString("id = ANY(" + q.Arg(pq.Array(ids)) + ")")
}

type contains struct {
	field Field
	term  string
	lower string
}

// Contains：列值包含 term，大小写不敏感
func Contains(f Field, term string) Predicate {
	return contains{field: f, term: term, lower: strings.ToLower(term)}
}

func (c contains) Match(pp *models.PollingPlace) bool {
	return strings.Contains(strings.ToLower(c.field.value(pp)), c.lower)
}

func (c contains) WriteSQL(q *Query) {
	q.WriteString(c.field.Column() + " ILIKE " + q.Arg("%"+escapeLike(c.term)+"%") + ` ESCAPE '\'`)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }

// AnyTextField：term 命中 name / premises / address 任一列
func AnyTextField(term string) Predicate {
	ps := make([]Predicate, 0, len(TextFields))
	for _, f := range TextFields {
		ps = append(ps, Contains(f, term))
	}
	return Or(ps...)
}
