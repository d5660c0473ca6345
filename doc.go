/*
NoahFrame is a schema-driven entity kernel for game servers. Entities are
instances of classes defined in a registry: typed, flagged properties plus
tabular records. Every committed write raises a synchronous event, and
collaborator modules built on that stream provide persistence of Save-flagged
data and replication of Public-flagged data.

Classes and entities

Classes are defined on a Registry, optionally inheriting from a parent class.
A child class may override a property's default value and flags but never its
type. Entities are created through the Kernel and addressed by EntityID, a
globally unique identifier. All reads and writes go through the Kernel; the
write commits first, then the event fires, so a subscriber always observes
the store in its post-write state.

Single writer

The Kernel does no internal locking. All entity operations, event callbacks
and timer callbacks run on the one goroutine driving the main loop. Slow work
belongs on the storage routine or behind post.Post.

Run a server

A common program looks like below:

	import "github.com/noahframe/noahframe"

	func main() {
		f := noahframe.New()
		f.Registry().Define("Player", "").
			Property("HP", data.TInt, 100, "save", "public").
			Record("Bag", []string{"save"},
				schema.Column("ItemID", data.TInt),
				schema.Column("Count", data.TInt))
		f.Run(&MyDelegate{})
	}
*/
package noahframe
