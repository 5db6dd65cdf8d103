package workspace

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"go.uber.org/atomic"
)

var (
	bpSeqNo = atomic.NewUint64(0)
)

// Args 被跟踪函数的调用参数
type Args struct {
	Positional []any
	Keyword    map[string]any
}

// Predicate 断点条件，返回错误时断点按命中处理
type Predicate func(args Args) (bool, error)

// Breakpoint 断点信息
type Breakpoint struct {
	ID       uint64 // 断点编号
	Key      string // 匹配的函数名或函数名片段
	Cond     string // 条件表达式
	HitCount int    // 命中次数
	Enabled  bool   // 断点是否启用

	pred Predicate
}

// 创建一个匹配key的断点，pred为空表示无条件断点
func newBreakpoint(key string, pred Predicate) *Breakpoint {
	return &Breakpoint{
		ID:      bpSeqNo.Add(1),
		Key:     key,
		Enabled: true,
		pred:    pred,
	}
}

// matchName 检查函数名fn是否等于key或包含key
func (b *Breakpoint) matchName(fn string) bool {
	return b.Key == fn || strings.Contains(fn, b.Key)
}

// check 计算断点条件，条件出错或panic时按命中处理，返回的error用于记录日志
func (b *Breakpoint) check(args Args) (hit bool, err error) {
	if b.pred == nil {
		return true, nil
	}
	defer func() {
		if r := recover(); r != nil {
			hit, err = true, fmt.Errorf("predicate panic: %v", r)
		}
	}()
	ok, err := b.pred(args)
	if err != nil {
		return true, err
	}
	return ok, nil
}

// CompileCondition 把条件表达式编译成断点条件
//
// 表达式中可以访问args(位置参数)、kwargs(关键字参数)以及每个位置参数argN，例如:
//
//	len(args) > 0 && arg0 == "INBOX"
func CompileCondition(cond string) (Predicate, error) {
	program, err := expr.Compile(cond, expr.AsBool(), expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("compile condition %q: %w", cond, err)
	}
	return conditionPredicate(program), nil
}

func conditionPredicate(program *vm.Program) Predicate {
	return func(args Args) (bool, error) {
		env := map[string]any{
			"args":   args.Positional,
			"kwargs": args.Keyword,
		}
		for i, v := range args.Positional {
			env[fmt.Sprintf("arg%d", i)] = v
		}
		for k, v := range args.Keyword {
			if _, ok := env[k]; !ok {
				env[k] = v
			}
		}
		out, err := expr.Run(program, env)
		if err != nil {
			return false, err
		}
		ok, _ := out.(bool)
		return ok, nil
	}
}

// Breakpoints 所有的断点信息
type Breakpoints []*Breakpoint

// Len 返回长度
func (b Breakpoints) Len() int {
	return len(b)
}

// Less 检查b[i]是否小于b[j]
func (b Breakpoints) Less(i, j int) bool {
	return b[i].ID < b[j].ID
}

// Swap 交换b[i]和b[j]
func (b Breakpoints) Swap(i, j int) {
	b[i], b[j] = b[j], b[i]
}

// BreakpointInfo 快照中的断点只读信息
type BreakpointInfo struct {
	ID       uint64
	Key      string
	Cond     string
	HitCount int
	Enabled  bool
}

func (b *Breakpoint) info() BreakpointInfo {
	return BreakpointInfo{
		ID:       b.ID,
		Key:      b.Key,
		Cond:     b.Cond,
		HitCount: b.HitCount,
		Enabled:  b.Enabled,
	}
}
