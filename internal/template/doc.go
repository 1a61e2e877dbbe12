// Package template renders the CloudFormation document that provisions a
// GPU notebook instance: an execution role, a rotating KMS key with alias,
// a lifecycle configuration whose hooks invoke the nbenv agent, and the
// notebook instance itself.
//
// The document is modeled as typed structs and marshaled to YAML, so the
// resource graph is checked by the compiler instead of hand-edited
// indentation.
package template
