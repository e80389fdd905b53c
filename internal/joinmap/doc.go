// Package joinmap describes how a device's logical points map onto numbered
// bridge joins.
//
// Every adapter ships a compiled-in default Map. A serialized override, keyed
// by join map key, replaces the default wholesale when it is well-formed:
//
//	{
//	  "Enable": {"joinNumber": 1, "joinSpan": 1, "joinType": "digital", "direction": "both"},
//	  "Name":   {"joinNumber": 1, "joinSpan": 1, "joinType": "serial", "direction": "toBridge"}
//	}
//
// A malformed override is logged and ignored. Device construction never
// fails because of one.
//
// Join numbers in a Map are relative: 1 is the first join of the device's
// block. Offset shifts a map onto the absolute joins starting at joinStart.
//
// Overrides come from a Source. StaticSource serves the config file's
// join_maps section; SQLiteStore serves overrides edited through the API.
// Chain consults several in order.
package joinmap
