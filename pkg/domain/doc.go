/*
Package domain contains the core models of the Mortar dialogue runtime.

It defines the compiled program (nodes, content items, conditions, events and
timelines), the outcomes of navigation requests, and the values handed to the
host. This package is kept pure and free of I/O, following Hexagonal
Architecture principles.

# Key Entities

  - Program: an immutable compiled Mortar file.
  - Node: a named unit of content (text, choice and run items) with an optional successor.
  - Event / EventDef / TimelineDef: actions bound to text positions or paced in sequence.
  - DispatchedAction: a name/args pair the host realises.
  - Snapshot: the persistable view of a running session.
*/
package domain
