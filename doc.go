// Package filterio persists and interchanges digital filter designs.
//
// A filter design is a [State]: an ordered dictionary holding the design
// specifications, the coefficients under "ba" and the fixed-point settings
// under "q_coeff". A [Session] owns one State and moves it between files
// in the formats other tools consume.
//
// # Features
//
//   - Whole-state save and load as zipped NumPy archives (.npz) or pickled
//     objects (.pkl, protocol 2)
//   - Coefficient export to CSV, MATLAB workspaces (.mat), NumPy (.npy,
//     .npz), Excel 2007 workbooks (.xlsx), Xilinx .coe and impulse response
//     WAV files
//   - Coefficient import from .mat, .npy, .npz and .wav
//   - Fixed-point quantization matching the Xilinx CORE Generator layout
//   - File-type descriptors in the "Label (*.ext);;Label (*.ext)" form used
//     by file dialogs, filtered by filter type and available codecs
//
// # Quick Start
//
//	s, err := filterio.New(nil, nil) // default moving-average FIR
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// chosen is the descriptor entry picked by the user; "" selects by
//	// the extension of path.
//	if _, err := s.SaveState("lowpass.npz", ""); err != nil {
//	    log.Fatal(err)
//	}
//	if _, err := s.ExportCoefficients("lowpass.coe", "Xilinx coefficient format (*.coe)"); err != nil {
//	    log.Fatal(err)
//	}
//
// # Format Selection
//
// Each operation offers the descriptor returned by [Session.Descriptor].
// The filter text the user picks is matched against it; when several
// entries list the same extension the last one wins. The path handed to an
// operation gets its extension replaced by the resolved one, and the
// returned path is the file actually written or read. An empty path is a
// cancelled selection and does nothing.
//
// .coe and .wav exports are offered for FIR filters only. Which
// spreadsheet flavors are offered depends on [Capabilities], fixed when the
// session is created.
//
// # Load Semantics
//
// Loading an .npz archive merges it into the current state: stored keys
// overwrite, other keys survive. Loading a .pkl file replaces the state.
// Importing coefficients changes only "ba". A failing operation never
// modifies the state or the last-used directory.
//
// # Errors
//
// Failures wrap one of [ErrUnsupportedFormat], [ErrIO], [ErrDecode] or
// [ErrEncode]; test them with errors.Is.
//
// # Thread Safety
//
// A [Session] is not safe for concurrent use. Hosts calling from several
// goroutines must serialize operations.
package filterio
