// Package taxonomy builds the four-level curriculum tree from flat type records.
package taxonomy

import (
	"sort"

	"github.com/hakwonlab/mathbank/internal/model"
)

// BuildTree groups records by (levelCode, domainCode, standardCode) into the
// Level -> Domain -> Standard -> Type hierarchy. Node order follows the first
// occurrence of each code in the input; types within a standard are sorted by
// type code for stable display. The function is pure and idempotent.
func BuildTree(records []model.TypeRecord) model.Tree {
	var tree model.Tree

	levelIdx := map[string]int{}
	domainIdx := map[string]map[string]int{}
	standardIdx := map[string]map[string]int{}
	standards := map[string]struct{}{}

	for _, rec := range records {
		li, ok := levelIdx[rec.LevelCode]
		if !ok {
			li = len(tree.Levels)
			levelIdx[rec.LevelCode] = li
			tree.Levels = append(tree.Levels, model.LevelNode{
				LevelCode:   rec.LevelCode,
				SchoolLevel: rec.SchoolLevel,
			})
			domainIdx[rec.LevelCode] = map[string]int{}
		}
		level := &tree.Levels[li]

		di, ok := domainIdx[rec.LevelCode][rec.DomainCode]
		if !ok {
			di = len(level.Domains)
			domainIdx[rec.LevelCode][rec.DomainCode] = di
			level.Domains = append(level.Domains, model.DomainNode{DomainCode: rec.DomainCode})
			standardIdx[rec.LevelCode+"/"+rec.DomainCode] = map[string]int{}
		}
		domain := &level.Domains[di]

		stdKey := rec.LevelCode + "/" + rec.DomainCode
		si, ok := standardIdx[stdKey][rec.StandardCode]
		if !ok {
			si = len(domain.Standards)
			standardIdx[stdKey][rec.StandardCode] = si
			domain.Standards = append(domain.Standards, model.StandardNode{
				StandardCode:    rec.StandardCode,
				StandardContent: rec.StandardContent,
			})
		}
		domain.Standards[si].Types = append(domain.Standards[si].Types, rec)

		standards[rec.StandardCode] = struct{}{}
		tree.TotalTypes++
	}
	tree.TotalStandards = len(standards)

	for li := range tree.Levels {
		for di := range tree.Levels[li].Domains {
			for si := range tree.Levels[li].Domains[di].Standards {
				types := tree.Levels[li].Domains[di].Standards[si].Types
				sort.Slice(types, func(i, j int) bool {
					return types[i].TypeCode < types[j].TypeCode
				})
			}
		}
	}

	return tree
}

// Flatten returns every type record in the tree, walking levels, domains and
// standards in node order. The result is the exact input set of BuildTree.
func Flatten(tree model.Tree) []model.TypeRecord {
	var out []model.TypeRecord
	for _, level := range tree.Levels {
		for _, domain := range level.Domains {
			for _, std := range domain.Standards {
				out = append(out, std.Types...)
			}
		}
	}
	return out
}
