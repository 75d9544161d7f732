// This is free and unencumbered software released into the public domain.
//
// Anyone is free to copy, modify, publish, use, compile, sell, or
// distribute this software, either in source code form or as a compiled
// binary, for any purpose, commercial or non-commercial, and by any
// means.
//
// In jurisdictions that recognize copyright laws, the author or authors
// of this software dedicate any and all copyright interest in the
// software to the public domain. We make this dedication for the benefit
// of the public at large and to the detriment of our heirs and
// successors. We intend this dedication to be an overt act of
// relinquishment in perpetuity of all present and future rights to this
// software under copyright law.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
// EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF
// MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.
// IN NO EVENT SHALL THE AUTHORS BE LIABLE FOR ANY CLAIM, DAMAGES OR
// OTHER LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE,
// ARISING FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR
// OTHER DEALINGS IN THE SOFTWARE.
//
// For more information, please refer to <https://unlicense.org>

// Command smtctl exercises commit/prove/verify against a Pebble-backed
// store, replacing the teacher's bare cmd/fuzzinsertstemordered func main()
// with a proper urfave/cli/v2 subcommand tree.
package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	"github.com/chainkit/smt"
	"github.com/chainkit/smt/storage/pebblestore"
	"github.com/chainkit/smt/storage/subtreecache"
)

const defaultRootName = "root:main"

func main() {
	app := &cli.App{
		Name:  "smtctl",
		Usage: "commit, prove and verify against a sparse Merkle tree",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "db", Usage: "pebble data directory", Required: true},
		},
		Commands: []*cli.Command{
			commitCommand,
			proveCommand,
			verifyCommand,
			fuzzCommand,
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "smtctl:", err)
		os.Exit(1)
	}
}

func openStore(c *cli.Context) (*pebblestore.Store, *subtreecache.Cache, error) {
	store, err := pebblestore.Open(c.String("db"))
	if err != nil {
		return nil, nil, fmt.Errorf("opening pebble store: %w", err)
	}
	cache := subtreecache.New(store, 64<<20)
	return store, cache, nil
}

var commitCommand = &cli.Command{
	Name:      "commit",
	Usage:     "apply key=value pairs to the tree and persist the new root",
	ArgsUsage: "key1=value1 [key2=value2 ...]",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "dry-run", Usage: "discard cache effects instead of committing them"},
	},
	Action: func(c *cli.Context) error {
		lg := log.New("cmd", "commit")
		store, cache, err := openStore(c)
		if err != nil {
			return err
		}
		defer store.Close()

		root, err := currentRoot(store)
		if err != nil {
			return err
		}
		tr, err := smt.New(root)
		if err != nil {
			return err
		}

		var gen uint32
		if c.Bool("dry-run") {
			gen, err = cache.Snapshot()
			if err != nil {
				return err
			}
		}

		b := smt.NewBatch()
		for _, arg := range c.Args().Slice() {
			k, v, ok := strings.Cut(arg, "=")
			if !ok {
				return fmt.Errorf("argument %q is not in key=value form", arg)
			}
			b.Set([]byte(k), []byte(v))
		}
		newRoot, err := tr.Commit(context.Background(), cache, b)
		if err != nil {
			return err
		}

		if c.Bool("dry-run") {
			lg.Info("dry run complete, discarding cache effects", "would_be_root", hex.EncodeToString(newRoot[:]))
			return cache.Restore(gen)
		}
		if err := store.PutRoot(defaultRootName, newRoot[:]); err != nil {
			return err
		}
		lg.Info("committed", "entries", b.Len(), "root", hex.EncodeToString(newRoot[:]))
		return nil
	},
}

var proveCommand = &cli.Command{
	Name:      "prove",
	Usage:     "produce a proof for one or more raw keys and write it as JSON",
	ArgsUsage: "key1 [key2 ...]",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "out", Usage: "output file for the proof JSON", Required: true},
	},
	Action: func(c *cli.Context) error {
		store, cache, err := openStore(c)
		if err != nil {
			return err
		}
		defer store.Close()

		root, err := currentRoot(store)
		if err != nil {
			return err
		}
		tr, err := smt.New(root)
		if err != nil {
			return err
		}

		queries := make([][]byte, c.Args().Len())
		for i, k := range c.Args().Slice() {
			queries[i] = smt.KeyHash([]byte(k))
		}
		proof, err := tr.Prove(context.Background(), cache, queries)
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(toJSONProof(proof), "", "  ")
		if err != nil {
			return err
		}
		return os.WriteFile(c.String("out"), data, 0o644)
	},
}

var verifyCommand = &cli.Command{
	Name:      "verify",
	Usage:     "verify a proof file produced by 'prove' against the tree's current root",
	ArgsUsage: "proof.json",
	Action: func(c *cli.Context) error {
		lg := log.New("cmd", "verify")
		if c.Args().Len() != 1 {
			return fmt.Errorf("expected exactly one proof file argument")
		}
		store, _, err := openStore(c)
		if err != nil {
			return err
		}
		defer store.Close()

		root, err := currentRoot(store)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(c.Args().First())
		if err != nil {
			return err
		}
		var jp jsonProof
		if err := json.Unmarshal(data, &jp); err != nil {
			return err
		}
		proof, queries, err := jp.toProof()
		if err != nil {
			return err
		}
		ok, err := smt.Verify(queries, proof, root[:], smt.DefaultKeyLength)
		if err != nil {
			lg.Error("verification failed", "err", err)
			return err
		}
		if !ok {
			return fmt.Errorf("proof did not verify")
		}
		lg.Info("proof verified", "queries", len(queries))
		return nil
	},
}

var fuzzCommand = &cli.Command{
	Name:  "fuzz",
	Usage: "property-check commit order-independence against random key/value batches",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "iterations", Value: 100},
		&cli.IntFlag{Name: "batch-size", Value: 64},
	},
	Action: func(c *cli.Context) error {
		return runFuzz(c.Int("iterations"), c.Int("batch-size"))
	},
}

func currentRoot(store *pebblestore.Store) (smt.Hash, error) {
	raw, err := store.GetRoot(defaultRootName)
	if err != nil {
		return smt.Hash{}, err
	}
	var root smt.Hash
	if raw == nil {
		return smt.EmptyHash(), nil
	}
	copy(root[:], raw)
	return root, nil
}

// jsonProof and queryProofJSON are a CLI-only hex-friendly rendering of
// smt.Proof; the core package's wire format for Proof is intentionally left
// unspecified (proof transport is a host-application concern, per the core
// spec's external-interfaces boundary), so this encoding belongs here, not
// in the core package.
type jsonProof struct {
	SiblingHashes []string         `json:"sibling_hashes"`
	Queries       []queryProofJSON `json:"queries"`
}

type queryProofJSON struct {
	Key    string `json:"key"`
	Value  string `json:"value,omitempty"`
	Bitmap string `json:"bitmap"`
}

func toJSONProof(p *smt.Proof) jsonProof {
	out := jsonProof{SiblingHashes: make([]string, len(p.SiblingHashes))}
	for i, h := range p.SiblingHashes {
		out.SiblingHashes[i] = hex.EncodeToString(h[:])
	}
	out.Queries = make([]queryProofJSON, len(p.Queries))
	for i, q := range p.Queries {
		out.Queries[i] = queryProofJSON{
			Key:    hex.EncodeToString(q.Key),
			Value:  hex.EncodeToString(q.Value),
			Bitmap: hex.EncodeToString(q.Bitmap),
		}
	}
	return out
}

func (jp jsonProof) toProof() (*smt.Proof, [][]byte, error) {
	siblings := make([]smt.Hash, len(jp.SiblingHashes))
	for i, s := range jp.SiblingHashes {
		b, err := hex.DecodeString(s)
		if err != nil {
			return nil, nil, err
		}
		copy(siblings[i][:], b)
	}
	queries := make([][]byte, len(jp.Queries))
	qp := make([]smt.QueryProof, len(jp.Queries))
	for i, q := range jp.Queries {
		key, err := hex.DecodeString(q.Key)
		if err != nil {
			return nil, nil, err
		}
		value, err := hex.DecodeString(q.Value)
		if err != nil {
			return nil, nil, err
		}
		bitmap, err := hex.DecodeString(q.Bitmap)
		if err != nil {
			return nil, nil, err
		}
		queries[i] = key
		qp[i] = smt.QueryProof{Key: key, Value: value, Bitmap: bitmap}
	}
	return &smt.Proof{SiblingHashes: siblings, Queries: qp}, queries, nil
}
