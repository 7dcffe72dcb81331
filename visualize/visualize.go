package visualize

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Luismorlan/pow_ledger/model"
	"github.com/bradleyjkemp/memviz"
)

// We re-define the visualize model here because the full records and hashes are too
// long to render.
type record struct {
	author  string
	content string
	extra   string
}

type block struct {
	index    int64
	hash     string
	prevHash string
	nonce    int64
	records  []record
	next     *block
}

// The hashes are just too long to render, instead we take only first 3 and last 3
// characters and replace the middle part with '...'. E.g. "abcdefghi" will be rendered as "abc...ghi"
func shortenString(s string) string {
	if len(s) < 9 {
		return s
	}
	return fmt.Sprintf("%s...%s", s[0:3], s[len(s)-3:])
}

func recordToRecord(r model.Record) record {
	rec := record{
		author:  fmt.Sprint(r["author"]),
		content: fmt.Sprint(r["content"]),
	}
	var keys []string
	for k := range r {
		if k != "author" && k != "content" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	var extra []string
	for _, k := range keys {
		extra = append(extra, fmt.Sprintf("%s=%v", k, r[k]))
	}
	rec.extra = strings.Join(extra, " ")
	return rec
}

func blockToBlock(b *model.Block) *block {
	n := &block{
		index:    b.Index,
		hash:     shortenString(b.Hash),
		prevHash: shortenString(b.PrevHash),
		nonce:    b.Nonce,
	}
	for _, r := range b.Txs {
		n.records = append(n.records, recordToRecord(r))
	}
	return n
}

// Link the last d+1 blocks of the chain, the oldest first.
func constructData(chain []*model.Block, d int) *block {
	if len(chain) == 0 {
		return nil
	}
	start := len(chain) - 1 - d
	if start < 0 {
		start = 0
	}
	root := blockToBlock(chain[start])
	cur := root
	for _, b := range chain[start+1:] {
		cur.next = blockToBlock(b)
		cur = cur.next
	}
	return root
}

// Entry to this package, where:
// chain: the blockchain as tracked by full node, genesis first.
// d: depth to render from the tail.
// id: unique id of the full node.
// Returns the path of the rendered image, or of the dot file when graphviz is missing.
func Render(chain []*model.Block, d int, id string) (string, error) {
	root := constructData(chain, d)
	if root == nil {
		return "", errors.New("nothing to render")
	}
	buf := &bytes.Buffer{}
	memviz.Map(buf, root)

	// Write the parsed data to disk
	fileName := filepath.Join(os.TempDir(), "chaindata-"+id)
	outputName := filepath.Join(os.TempDir(), "rendered-chain-"+id+".png")
	if err := os.WriteFile(fileName, buf.Bytes(), 0644); err != nil {
		return "", err
	}

	if err := exec.Command("dot", "-Tpng", fileName, "-o", outputName).Run(); err != nil {
		return fileName, nil
	}
	return outputName, nil
}
