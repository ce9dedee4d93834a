// Package scripts 合约交互脚本模板，按版本目录嵌入二进制
// 模板只接受经过校验的合约名与合约地址两个参数
package scripts

import (
	"bytes"
	"embed"
	"fmt"
	"regexp"
	"text/template"

	"proposal-core/pkg/flow/types"
)

// Version 当前使用的脚本版本目录
const Version = "v1"

//go:embed cdc
var files embed.FS

// Name 脚本名，对应 cdc/<version>/<name>.cdc
type Name string

const (
	CreateProposal     Name = "create_proposal"
	CloseProposal      Name = "close_proposal"
	GetProposal        Name = "get_proposal"
	GetActiveProposals Name = "get_active_proposals"
	GetTotalProposals  Name = "get_total_proposals"
)

// All 全部脚本，渲染器启动时一次性渲染
var All = []Name{CreateProposal, CloseProposal, GetProposal, GetActiveProposals, GetTotalProposals}

var contractNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,63}$`)

type contractRef struct {
	ContractName    string
	ContractAddress string
}

// Renderer 已渲染的脚本集合，创建后只读
type Renderer struct {
	ref      contractRef
	rendered map[Name][]byte
}

// NewRenderer 校验合约名与地址并渲染全部脚本
func NewRenderer(contractName, contractAddress string) (*Renderer, error) {
	if !contractNamePattern.MatchString(contractName) {
		return nil, fmt.Errorf("invalid contract name %q", contractName)
	}
	addr, err := types.HexToAddress(contractAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid contract address: %w", err)
	}
	if addr.IsEmpty() {
		return nil, fmt.Errorf("contract address is empty")
	}

	r := &Renderer{
		ref:      contractRef{ContractName: contractName, ContractAddress: addr.Hex()},
		rendered: make(map[Name][]byte, len(All)),
	}
	for _, name := range All {
		out, err := render(Version, name, r.ref)
		if err != nil {
			return nil, err
		}
		r.rendered[name] = out
	}
	return r, nil
}

func render(version string, name Name, ref contractRef) ([]byte, error) {
	path := fmt.Sprintf("cdc/%s/%s.cdc", version, name)
	tmpl, err := template.New(string(name)).Option("missingkey=error").ParseFS(files, path)
	if err != nil {
		return nil, fmt.Errorf("load script %s: %w", path, err)
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, string(name)+".cdc", ref); err != nil {
		return nil, fmt.Errorf("render script %s: %w", path, err)
	}
	return buf.Bytes(), nil
}

// Script 返回渲染后的脚本
func (r *Renderer) Script(name Name) ([]byte, error) {
	s, ok := r.rendered[name]
	if !ok {
		return nil, fmt.Errorf("unknown script %q", name)
	}
	return s, nil
}

func (r *Renderer) ContractName() string { return r.ref.ContractName }

// ContractAddress 不带 0x 前缀
func (r *Renderer) ContractAddress() string { return r.ref.ContractAddress }
