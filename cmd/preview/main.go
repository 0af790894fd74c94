// Command preview plays a container through the frame-accurate reader with
// SDL2: space pauses, arrow keys step one frame in either direction, Home/End
// jump, L toggles looping, B toggles bounce playback.
package main

import (
	"log"
	"os"
	"runtime"
	"time"

	"github.com/joho/godotenv"
	"github.com/veandco/go-sdl2/sdl"

	"frame-reel/pkg/reader"
	"frame-reel/pkg/video"
	"frame-reel/pkg/videofs"
)

func main() {
	// SDL2 requires its calls on the main OS thread.
	runtime.LockOSThread()

	log.SetFlags(log.LstdFlags | log.Lshortfile)

	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	path, err := pickSource()
	if err != nil {
		log.Fatalf("No playable source: %v", err)
	}
	if reader.IsImageFile(path) {
		log.Fatalf("%s is a single-frame image file; the frame reader is for video containers", path)
	}

	r := reader.New(path)
	defer r.Close()
	if r.IsInvalid() {
		log.Fatalf("Failed to open %s: %s", path, r.Err())
	}

	info, err := r.Info(0)
	if err != nil {
		log.Fatalf("Failed to read stream info: %v", err)
	}
	fps, err := r.FPS(0)
	if err != nil {
		log.Fatalf("Failed to read frame rate: %v", err)
	}

	log.Printf("Opened %s | %dx%d | %d frame(s) | %.3f fps | aspect=%.3f | colorspace=%s",
		path, info.Width, info.Height, info.Frames, fps, info.Aspect, r.Colorspace())

	rec := video.Recommend(r.Codec(), info.Width, info.Height)
	if !rec.ScrubFriendly {
		log.Printf("Codec %s (%s): %s", rec.Codec, rec.Type, rec.Reason)
		if rec.ReencodingCommand != "" {
			log.Printf("Consider: %s", rec.ReencodingCommand)
		}
	}

	if err := run(r, info, fps); err != nil {
		log.Fatalf("Playback failed: %v", err)
	}
}

// pickSource resolves what to play: an explicit argument, a remote bucket
// named via PREVIEW_BUCKET/PREVIEW_PREFIX, or the first local media file.
func pickSource() (string, error) {
	if len(os.Args) > 1 {
		return os.Args[1], nil
	}

	if bucket := os.Getenv("PREVIEW_BUCKET"); bucket != "" {
		paths, _, err := videofs.FetchSegment(videofs.Bucket{
			Name:   bucket,
			Prefix: os.Getenv("PREVIEW_PREFIX"),
		}, "assets/videos", 0, 1)
		if err != nil {
			return "", err
		}
		if len(paths) > 0 {
			return paths[0], nil
		}
	}

	media, err := videofs.ListLocal("assets/videos", "assets", ".")
	if err != nil {
		return "", err
	}
	if len(media) == 0 {
		log.Fatal("usage: preview <container> (or set PREVIEW_BUCKET)")
	}
	return media[0], nil
}

func run(r *reader.Reader, info reader.Info, fps float64) error {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return err
	}
	defer sdl.Quit()

	window, err := sdl.CreateWindow("preview", sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED,
		int32(info.Width), int32(info.Height), sdl.WINDOW_RESIZABLE)
	if err != nil {
		return err
	}
	defer window.Destroy()

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED|sdl.RENDERER_PRESENTVSYNC)
	if err != nil {
		return err
	}
	defer renderer.Destroy()

	texFormat := uint32(sdl.PIXELFORMAT_RGB24)
	if r.NumComponents() == 4 {
		texFormat = uint32(sdl.PIXELFORMAT_RGBA32)
	}
	texture, err := renderer.CreateTexture(texFormat, sdl.TEXTUREACCESS_STREAMING,
		int32(info.Width), int32(info.Height))
	if err != nil {
		return err
	}
	defer texture.Destroy()

	pb := newPlayback(r, info.Frames, fps)

	// First frame up before the event loop starts.
	if err := pb.seekTo(0); err != nil {
		return err
	}
	if err := uploadFrame(texture, r); err != nil {
		return err
	}

	for {
		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			switch e := event.(type) {
			case *sdl.QuitEvent:
				return nil
			case *sdl.KeyboardEvent:
				if e.Type != sdl.KEYDOWN {
					continue
				}
				var err error
				switch e.Keysym.Sym {
				case sdl.K_ESCAPE, sdl.K_q:
					return nil
				case sdl.K_SPACE:
					pb.playing = !pb.playing
					pb.lastTime = time.Now()
				case sdl.K_LEFT:
					pb.playing = false
					err = pb.step(-1)
				case sdl.K_RIGHT:
					pb.playing = false
					err = pb.step(1)
				case sdl.K_HOME:
					err = pb.seekTo(0)
				case sdl.K_END:
					err = pb.seekTo(info.Frames - 1)
				case sdl.K_l:
					pb.loop = !pb.loop
					log.Printf("Loop: %v", pb.loop)
				case sdl.K_b:
					pb.bounce = !pb.bounce
					log.Printf("Bounce: %v", pb.bounce)
				}
				if err != nil {
					log.Printf("Scrub failed: %v (%s)", err, r.Err())
				} else if !pb.playing {
					if err := uploadFrame(texture, r); err != nil {
						return err
					}
				}
			}
		}

		refreshed, err := pb.update()
		if err != nil {
			// A failed decode self-heals on the next call; report and keep
			// the last good frame on screen.
			log.Printf("Decode failed at frame %d: %v", pb.current, err)
		}
		if refreshed {
			if err := uploadFrame(texture, r); err != nil {
				return err
			}
		}

		if err := draw(renderer, texture, window, info); err != nil {
			return err
		}
	}
}

// uploadFrame copies the reader's output buffer into the streaming texture,
// folding 16-bit samples down to 8 for display.
func uploadFrame(texture *sdl.Texture, r *reader.Reader) error {
	data := r.Data()
	if r.BitDepth() > 8 {
		// Little-endian 16-bit samples; keep the high byte.
		shrunk := make([]byte, len(data)/2)
		for i := range shrunk {
			shrunk[i] = data[2*i+1]
		}
		data = shrunk
	}

	pixels, _, err := texture.Lock(nil)
	if err != nil {
		return err
	}
	defer texture.Unlock()

	copy(pixels, data)
	return nil
}

// draw letterboxes the frame into the current window size.
func draw(renderer *sdl.Renderer, texture *sdl.Texture, window *sdl.Window, info reader.Info) error {
	winW, winH := window.GetSize()

	// Pixel aspect corrects non-square-pixel sources for display.
	videoW := float64(info.Width) * info.Aspect
	videoH := float64(info.Height)

	scaleW := float64(winW) / videoW
	scaleH := float64(winH) / videoH
	scale := scaleW
	if scaleH < scaleW {
		scale = scaleH
	}

	renderW := int32(videoW * scale)
	renderH := int32(videoH * scale)

	dstRect := sdl.Rect{
		X: (winW - renderW) / 2,
		Y: (winH - renderH) / 2,
		W: renderW,
		H: renderH,
	}

	renderer.SetDrawColor(0, 0, 0, 255)
	renderer.Clear()
	if err := renderer.Copy(texture, nil, &dstRect); err != nil {
		return err
	}
	renderer.Present()
	return nil
}
