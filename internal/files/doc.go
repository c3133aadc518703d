// Package files locates instrument exports and names the files a run writes.
//
// Discovery finds VideoFreeze exports (.csv, .xlsx, .xls) in a data
// directory and picks the one belonging to a session when the experiment
// configuration names no file:
//
//	d := files.NewDiscovery("")
//	f, ok, err := d.FindSessionExport("/lab/tfc/raw", "train")
//
// Manager turns a session and an output kind into a path under the output
// or figure directory:
//
//	m := files.NewManager(paths, logger)
//	m.ArtifactPath("train", files.KindClean, "clean", "csv") // output/train_clean.csv
package files
