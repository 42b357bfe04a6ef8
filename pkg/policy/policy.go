// Package policy はルートごとの認可ポリシー（ルートポリシー）の表を提供する。
//
// ルートポリシーは (HTTPメソッド, ginのルートパス) をキーとし、
// 適用するチェックの順序付きリストを値とする明示的なデータとして扱う。
// YAMLファイルから読み込んで既定の表を上書きできる。
//
//	routes:
//	  - method: GET
//	    path: /api/v1/jobs
//	    checks: [auth, payment]
package policy

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/HarshHariyani/HiringBull/pkg/gate"
)

// RouteKey はポリシー表のキー。Path は ":id" を含むginのルートパス。
type RouteKey struct {
	Method string
	Path   string
}

func (k RouteKey) String() string {
	return k.Method + " " + k.Path
}

// Key はメソッドを大文字に正規化したRouteKeyを返す。
func Key(method, path string) RouteKey {
	return RouteKey{Method: strings.ToUpper(strings.TrimSpace(method)), Path: strings.TrimSpace(path)}
}

// Table はルートとポリシーの対応表。
type Table map[RouteKey]gate.Policy

// Lookup はルートのポリシーを返す。登録が無い場合はfalse。
func (t Table) Lookup(method, path string) (gate.Policy, bool) {
	p, ok := t[Key(method, path)]
	return p, ok
}

// Validate は全ポリシーを検証する。最初のエラーをルート名付きで返す。
func (t Table) Validate() error {
	for _, k := range t.Keys() {
		if err := t[k].Validate(); err != nil {
			return fmt.Errorf("%s: %w", k, err)
		}
	}
	return nil
}

// Merge は override の内容で上書きした新しい表を返す。元の表は変更しない。
func (t Table) Merge(override Table) Table {
	out := make(Table, len(t)+len(override))
	for k, p := range t {
		out[k] = p
	}
	for k, p := range override {
		out[k] = p
	}
	return out
}

// Keys はキーをパス・メソッド順に並べて返す。
func (t Table) Keys() []RouteKey {
	keys := make([]RouteKey, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Path != keys[j].Path {
			return keys[i].Path < keys[j].Path
		}
		return keys[i].Method < keys[j].Method
	})
	return keys
}

// file はポリシーファイルのYAML表現。
type file struct {
	Routes []route `yaml:"routes"`
}

type route struct {
	Method string   `yaml:"method"`
	Path   string   `yaml:"path"`
	Checks []string `yaml:"checks"`
}

// Load はYAMLファイルからポリシー表を読み込む。
func Load(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ポリシーファイルの読み込みに失敗: %w", err)
	}
	return Parse(data)
}

// Parse はYAMLのバイト列からポリシー表を生成し、検証する。
// 同じルートの重複定義はエラーとする。
func Parse(data []byte) (Table, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("ポリシーファイルのパースに失敗: %w", err)
	}

	t := make(Table, len(f.Routes))
	for i, r := range f.Routes {
		k := Key(r.Method, r.Path)
		if k.Method == "" || k.Path == "" {
			return nil, fmt.Errorf("routes[%d]: method と path は必須です", i)
		}
		if _, dup := t[k]; dup {
			return nil, fmt.Errorf("routes[%d]: %s が重複しています", i, k)
		}
		checks := make([]gate.CheckName, 0, len(r.Checks))
		for _, c := range r.Checks {
			checks = append(checks, gate.CheckName(strings.TrimSpace(c)))
		}
		t[k] = gate.Policy{Checks: checks}
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}
