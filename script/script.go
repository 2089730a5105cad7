package script

// 章节正文的js后处理：脚本可读取全局变量title与text，脚本的最后一个表达式的值作为新的正文

import (
	"errors"
	"fmt"
	"time"

	"github.com/robertkrimen/otto"
)

var errHalt = errors.New("content script timed out")

type Filter struct {
	src     *otto.Script
	timeout time.Duration
}

// 脚本只编译一次，每次执行使用新的虚拟机，互不影响
func Compile(source string, timeout time.Duration) (*Filter, error) {
	src, err := otto.New().Compile("content_script", source)
	if err != nil {
		return nil, fmt.Errorf("compile content script: %w", err)
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Filter{src: src, timeout: timeout}, nil
}

/*
输入章节标题与正文，输出处理后的正文

脚本结果为undefined或null时正文保持不变，其余结果转为字符串；超时通过otto的Interrupt机制中断
*/
func (f *Filter) Apply(title, text string) (result string, err error) {
	vm := otto.New()
	if err := vm.Set("title", title); err != nil {
		return "", err
	}
	if err := vm.Set("text", text); err != nil {
		return "", err
	}

	vm.Interrupt = make(chan func(), 1)
	timer := time.AfterFunc(f.timeout, func() {
		vm.Interrupt <- func() {
			panic(errHalt)
		}
	})
	defer timer.Stop()
	defer func() {
		if r := recover(); r != nil {
			if r == errHalt {
				err = errHalt
				return
			}
			panic(r)
		}
	}()

	v, err := vm.Run(f.src)
	if err != nil {
		return "", fmt.Errorf("run content script: %w", err)
	}
	if v.IsUndefined() || v.IsNull() {
		return text, nil
	}
	return v.ToString()
}
