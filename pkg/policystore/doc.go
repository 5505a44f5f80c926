// Package policystore reads and edits YAML configuration files, chiefly
// Janitorr's own application.yml.
//
// Janitorr is configured through a Spring-style application.yml. The
// dashboard needs three things from it: the Jellyfin client settings, the
// deletion rules that determine retention, and an editor for admins. Store
// wraps the file on disk, Document is the decoded tree, ApplyForm applies a
// flat form submission with dotted keys, and Diff previews an edit as a
// unified diff before it is written.
//
// Writes keep the previous file as <name>.yml.backup and put it back if the
// new content cannot be written.
package policystore
