// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// ANSI 顏色代碼 (Windows 10+ 的 cmd/powershell 皆支援)
const (
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorReset  = "\033[0m"
)

func printColor(color, msg string) { fmt.Printf("%s%s%s\n", color, msg, colorReset) }

// task 一個 make 目標：依序執行的 go 指令
type task struct {
	desc  string
	steps [][]string
	brief bool // 只顯示 ok / FAIL 行
}

var tasks = map[string]task{
	"test": {
		desc:  "go test ./... -cover (summary only)",
		steps: [][]string{{"clean", "-testcache"}, {"test", "./...", "-cover", "-count=1"}},
		brief: true,
	},
	"test-detail": {
		desc:  "go test ./... -v",
		steps: [][]string{{"clean", "-testcache"}, {"test", "./...", "-v", "-count=1"}},
	},
	// session 的 phase 與自動轉都有併發路徑
	"race": {
		desc:  "go test -race on engine, session and server",
		steps: [][]string{{"test", "-race", "-count=1", ".", "./jackpot/...", "./server/..."}},
		brief: true,
	},
	"sim": {
		desc:  "1M rounds of every demo theme",
		steps: [][]string{
			{"run", "./cmd/run", "-theme", "fruit", "-spins", "1000000", "-seed", "1"},
			{"run", "./cmd/run", "-theme", "crypto", "-spins", "1000000", "-seed", "1"},
			{"run", "./cmd/run", "-theme", "neon", "-spins", "1000000", "-seed", "1"},
		},
	},
	// 產出 build/profiling/cpu.pprof，可複製成 default.pgo 供建置使用
	"pgo": {
		desc:  "cpu profile of a 4-worker crypto simulation",
		steps: [][]string{{"run", "./cmd/run", "-theme", "crypto", "-worker", "4", "-spins", "2000000", "-p", "cpu"}},
	},
}

func main() {
	// 如果沒有送任何參數進來，我們告訴用戶需要帶上 task
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	t, ok := tasks[os.Args[1]]
	if !ok {
		printColor(colorYellow, "Unknown task: "+os.Args[1])
		usage()
		os.Exit(1)
	}
	printColor(colorGreen, "running "+t.desc)
	for _, step := range t.steps {
		if err := run(step, t.brief); err != nil {
			printColor(colorRed, fmt.Sprintf("\ngo %s: %v", strings.Join(step, " "), err))
			os.Exit(1) // 告訴 Makefile 失敗了
		}
	}
}

func usage() {
	fmt.Println("Usage: go run scripts/ops.go [task]")
	for name, t := range tasks {
		fmt.Printf("  %-12s %s\n", name, t.desc)
	}
}

// run 執行 go 子指令；stdout 與 stderr 合併後逐行上色
func run(args []string, brief bool) error {
	cmd := exec.Command("go", args...)
	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw
	if err := cmd.Start(); err != nil {
		return err
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		sc := bufio.NewScanner(pr)
		for sc.Scan() {
			line := sc.Text()
			switch {
			case strings.Contains(line, "[no test files]"):
			case strings.HasPrefix(line, "ok"):
				printColor(colorGreen, line)
			case strings.HasPrefix(line, "FAIL"), strings.Contains(line, "build failed"), strings.Contains(line, "DATA RACE"):
				printColor(colorRed, line)
			case !brief:
				fmt.Println(line)
			}
		}
	}()
	err := cmd.Wait()
	pw.Close()
	<-done
	return err
}
