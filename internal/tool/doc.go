// Package tool provides the registry of content tools and the built-in tool
// set: paragraph, header, quote, list, code, image, delimiter and stub.
//
// Tools are looked up by name. The registry also designates the default
// tool, which the block manager uses whenever an insert does not name one.
package tool
