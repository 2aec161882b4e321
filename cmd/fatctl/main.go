// Command fatctl is a small CLI for inspecting and manipulating a FAT32
// volume image file, for manual testing of this module outside of Go tests.
//
// Grounded on cmd/main.go's urfave/cli/v2 App/Command structure and
// cmd/unzipimage/main.go's plain log.Fatalf error-reporting style (no
// third-party logger anywhere in this module — see SPEC_FULL.md §8).
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/reduxos/fat32vm/blockio"
	"github.com/reduxos/fat32vm/direntry"
	"github.com/reduxos/fat32vm/mediatable"
	"github.com/reduxos/fat32vm/volume"
)

// mediaProfile is the --profile flag shared by every command that mounts an
// image, naming one of mediatable's embedded media profiles.
var mediaProfile string

func main() {
	app := &cli.App{
		Usage: "Inspect and manipulate FAT32 volume image files",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "profile",
				Usage:       fmt.Sprintf("media profile for the image backend (one of %v)", mediatable.Slugs()),
				Value:       "firmware_fixed",
				Destination: &mediaProfile,
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "ls",
				Usage:     "List a directory's entries",
				ArgsUsage: "IMAGE PATH",
				Action:    lsCommand,
			},
			{
				Name:      "cat",
				Usage:     "Print a file's contents to stdout",
				ArgsUsage: "IMAGE PATH",
				Action:    catCommand,
			},
			{
				Name:      "cp",
				Usage:     "Copy a local file into the image",
				ArgsUsage: "LOCAL_FILE IMAGE DEST_DIR DEST_NAME",
				Action:    cpCommand,
			},
			{
				Name:      "mkdir",
				Usage:     "Create a directory",
				ArgsUsage: "IMAGE PARENT_PATH NAME",
				Action:    mkdirCommand,
			},
			{
				Name:      "rm",
				Usage:     "Remove a file or empty directory",
				ArgsUsage: "IMAGE PATH",
				Action:    rmCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("fatal error: %s", err.Error())
	}
}

// openVolume mounts the FAT32 image at path as a single firmware-tier
// backend built from the --profile-named media characteristics, matching the
// real kernel's highest-priority backend choice when only one device is
// present.
func openVolume(path string) (*volume.Volume, *os.File, error) {
	file, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, nil, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, nil, err
	}
	lastBlock := uint64(info.Size())/blockio.SectorSize - 1

	backend, err := mediatable.NewBackend(mediaProfile, file, file, file, lastBlock)
	if err != nil {
		file.Close()
		return nil, nil, err
	}
	gateway := blockio.NewGateway(backend)

	results, err := volume.Probe(gateway)
	if err != nil {
		file.Close()
		return nil, nil, err
	}
	if len(results) == 0 {
		file.Close()
		return nil, nil, fmt.Errorf("%s: no FAT32 volume found", path)
	}

	vol, err := volume.Mount(gateway, results[0])
	if err != nil {
		file.Close()
		return nil, nil, err
	}
	return vol, file, nil
}

func lsCommand(ctx *cli.Context) error {
	if ctx.Args().Len() < 2 {
		return fmt.Errorf("usage: fatctl ls IMAGE PATH")
	}
	vol, file, err := openVolume(ctx.Args().Get(0))
	if err != nil {
		return err
	}
	defer file.Close()

	_, target, err := resolvePath(vol, ctx.Args().Get(1))
	if err != nil {
		return err
	}

	hits, err := direntry.Scan(vol.Gateway(), vol.FAT(), &vol.Geometry, target)
	if err != nil {
		return err
	}
	for _, hit := range hits {
		kind := "F"
		if hit.Entry.FileType == direntry.TypeDirectory {
			kind = "D"
		}
		fmt.Printf("%s %10d %s\n", kind, hit.Entry.SizeBytes, hit.Entry.DisplayName)
	}
	return nil
}

func catCommand(ctx *cli.Context) error {
	if ctx.Args().Len() < 2 {
		return fmt.Errorf("usage: fatctl cat IMAGE PATH")
	}
	vol, file, err := openVolume(ctx.Args().Get(0))
	if err != nil {
		return err
	}
	defer file.Close()

	hit, err := resolveEntry(vol, ctx.Args().Get(1))
	if err != nil {
		return err
	}
	if hit.Entry.FileType == direntry.TypeDirectory {
		return fmt.Errorf("%s is a directory", ctx.Args().Get(1))
	}

	buf := make([]byte, hit.Entry.SizeBytes)
	readFileFunc(vol, hit, buf)
	_, err = os.Stdout.Write(buf)
	return err
}

func cpCommand(ctx *cli.Context) error {
	if ctx.Args().Len() < 4 {
		return fmt.Errorf("usage: fatctl cp LOCAL_FILE IMAGE DEST_DIR DEST_NAME")
	}
	content, err := os.ReadFile(ctx.Args().Get(0))
	if err != nil {
		return err
	}
	vol, file, err := openVolume(ctx.Args().Get(1))
	if err != nil {
		return err
	}
	defer file.Close()

	_, destDir, err := resolvePath(vol, ctx.Args().Get(2))
	if err != nil {
		return err
	}

	return writeFileFunc(vol, destDir, ctx.Args().Get(3), content)
}

func mkdirCommand(ctx *cli.Context) error {
	if ctx.Args().Len() < 3 {
		return fmt.Errorf("usage: fatctl mkdir IMAGE PARENT_PATH NAME")
	}
	vol, file, err := openVolume(ctx.Args().Get(0))
	if err != nil {
		return err
	}
	defer file.Close()

	_, parent, err := resolvePath(vol, ctx.Args().Get(1))
	if err != nil {
		return err
	}

	newCluster, err := direntry.BootstrapSubdirectory(vol.Gateway(), vol.FAT(), &vol.Geometry, parent, vol.RootCluster())
	if err != nil {
		return err
	}
	_, err = direntry.Insert(vol.Gateway(), vol.FAT(), &vol.Geometry, parent, ctx.Args().Get(2), direntry.AttrDirectory, newCluster, 0)
	return err
}

func rmCommand(ctx *cli.Context) error {
	if ctx.Args().Len() < 2 {
		return fmt.Errorf("usage: fatctl rm IMAGE PATH")
	}
	vol, file, err := openVolume(ctx.Args().Get(0))
	if err != nil {
		return err
	}
	defer file.Close()

	return removePath(vol, ctx.Args().Get(1))
}
