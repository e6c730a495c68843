// Package schema declares the historical marker annotation.
//
// A source entity is marked for history generation with one or more
// directive comments placed on its type declaration:
//
//	//entityhistory:historical base=internal/history
//	//entityhistory:historical converter=converter.MapJSON column=JSONB
//	type Order struct {
//	    ID     int64
//	    Status string
//	}
//
// Each directive holds space separated key=value pairs. Values may be Go
// quoted strings when they contain spaces:
//
//	//entityhistory:historical entity-template="file:templates/my entity.tmpl"
//
// # Keys
//
//	target            root directory of the generated sources
//	base              base package path of the generated packages
//	entity-template   template of the history entity
//	dao-template      template of the history repository
//	service-template  template of the history service
//	converter         state converter type (alias.Name or import/path.Name)
//	column            state column definition (JSONB, or BYTEA with MapMsgpack)
//	state             Go type of the state, derived from the converter when unset
//
// Unset keys fall back to the generator configuration and then to Defaults.
package schema
