// Package diagram parses 2-D chemical structure drawings into an in-memory
// graph of atoms, bonds and free-text captions.
//
// The input dialect is the XML export of common structure-drawing programs:
//
//	<page>
//	  <fragment>
//	    <n id="1" p="100 120" Element="8" NumHydrogens="1"/>
//	    <n id="2" p="114.4 120"/>
//	    <b B="1" E="2" Order="2"/>
//	  </fragment>
//	  <t p="90 150"><s>Caption</s></t>
//	</page>
//
// # Tolerance
//
// Parsing is deliberately forgiving. Missing positions default to the origin,
// missing element numbers to carbon and missing bond orders to single bonds.
// Bonds that reference unknown atoms are dropped without an error. Only
// markup that is not well-formed XML produces an error, and a well-formed
// document without atoms is reported with ErrEmpty so callers can tell
// "nothing to draw" apart from "could not read the drawing".
//
// # Identity
//
// All fragments share one atom-id namespace. When two atoms carry the same
// id, the later one replaces the earlier one in place. Bonds hold indexes
// into Diagram.Atoms rather than pointers.
package diagram
