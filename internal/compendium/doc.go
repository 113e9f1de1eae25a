// Package compendium stores game content (monsters, spells, characters and
// groups) organised in realms and source documents.
//
// Key layout:
//
//	realm::<realm>
//	document::<realm>::<document>
//	entry::<type>::<realm>::<document>::<identifier>
//	importjob::<uuid>
//
// Monsters and spells are identified by title, characters and groups by
// UUID. Moving an entry to another document changes its key; Transfer and
// UpdateDocument rewrite every record that references a moved entry.
package compendium
