// Package mailer defines the provider-neutral Email type, the Sender contract
// implemented by the smtp and resend subpackages, and a Renderer that turns a
// markdown body into HTML inside a layout.
//
// Templates may start with YAML frontmatter:
//
//	---
//	subject: Feliz aniversario
//	---
//	Hola {{nombre}}, ...
//
// ParseTemplate splits the metadata from the body. The Renderer does not
// evaluate placeholders; callers substitute them before rendering.
package mailer
