// Package xmlframe loads LLB instrument XML files into frame records.
//
// A file holds a top-level wavelength element and a sequence of Frame
// elements. Every attribute and text element of a frame is kept as a typed
// field; Data elements hold ';'-separated integer counts that are reshaped
// into (y, x) grids and stored under the name declared for the array:
//
//	<Frame>
//	  <Angles><Phi>0</Phi><Omega>10</Omega><Gamma>32.5</Gamma></Angles>
//	  <Detector name="IntensityUp" x="2" y="2"><Data>1;2;3;4</Data></Detector>
//	</Frame>
//
// Load fails on the first malformed frame; there is no partial result.
package xmlframe
