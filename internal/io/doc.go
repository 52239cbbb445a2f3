// Package ioutils provides file system and image processing utilities.
//
// This package contains functions for:
//   - Moving downloaded files out of scratch directories
//   - Finding files by literal name prefix
//   - Directory creation
//   - Cover art resizing and format conversion
//
// # File Operations
//
//	// Move a file, copying when rename crosses file systems
//	err := ioutils.MoveFile(ctx, "/tmp/nts-1/show.m4a", "/music/show.m4a")
//
//	// Find what the downloader produced for a file stem
//	paths, err := ioutils.FindByPrefix("/tmp/nts-1", "Show - 2021-2-1")
//
// # Image Processing
//
//	svc := ioutils.NewImageService()
//	resized, _ := svc.ResizeImage(ctx, imageData, 500, 500)
//	jpeg, _ := svc.ConvertToJPEG(ctx, pngData)
package ioutils
