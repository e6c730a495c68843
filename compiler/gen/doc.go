// Package gen generates the history companions of historical entities.
//
// For every source entity marked with the historical directive, three Go
// files are generated under the target directory:
//
//	<target>/<base>/model/<entity>_history.go               history entity
//	<target>/<base>/dao/<entity>_history_repository.go      repository
//	<target>/<base>/service/<entity>_history_service.go     service
//
// # Pipeline
//
//	load.Entity (directives + type scope)
//	        ↓
//	Extract → Metadata (immutable, validated)
//	        ↓
//	Templates.Lookup (file:, template dirs, embedded)
//	        ↓
//	TemplateWriter.Generate (render, format, write)
//
// Generator.Run drives the pipeline for a batch. Metadata is extracted for
// the whole batch first, so that a FailFast run writes nothing when one
// entity is invalid. Generation failures are isolated per entity and listed
// in the Report.
//
// Extensions registered with WithExtensions run once the entities of a
// batch are generated; contrib/graphql is one.
//
// # Templates
//
// Templates are text/template files receiving a map with two keys:
//
//	h                 the "#" character
//	historicalEntity  the *Metadata of the entity
//
// The functions of Funcs are available to every template.
package gen
