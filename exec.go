package lkflow

import (
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/esimov/lkflow/utils"
	"golang.org/x/term"
)

// maxWorkers sets the maximum number of concurrently running workers.
const maxWorkers = 20

// Ops wires the command line arguments to the flow processor.
type Ops struct {
	Src, Dst, PipeName string
	Workers            int
}

// result holds the relevant information about the flow estimation of a frame.
type result struct {
	path string
	err  error
}

// job carries one computed flow field to the encoder workers.
type job struct {
	path  string
	field *Field[float32]
	frame *image.NRGBA
	err   error
}

// Execute executes the optical flow estimation process. The source is either
// a comma separated frame pair (local files or URLs) or a directory holding
// an ordered frame sequence.
func (p *Processor) Execute(op *Ops) {
	var err error
	defaultMsg := fmt.Sprintf("%s %s",
		utils.DecorateText("⚡ LKFLOW", utils.StatusMessage),
		utils.DecorateText("⇢ estimating the optical flow (be patient, it may take a while)...", utils.DefaultMessage),
	)
	p.Spinner = utils.NewSpinner(defaultMsg, time.Millisecond*80)

	// Capture CTRL-C signal and restore back the cursor visibility.
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-signalChan
		p.Spinner.RestoreCursor()
		os.Exit(1)
	}()

	now := time.Now()

	if parts := strings.Split(op.Src, ","); len(parts) == 2 {
		err = op.processPair(p, strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), op.Dst)
		op.printOpStatus(op.Dst, err)
	} else {
		fs, serr := os.Stat(op.Src)
		if serr != nil {
			log.Fatalf(
				utils.DecorateText("Failed to load the source frames: %v", utils.ErrorMessage),
				utils.DecorateText(serr.Error(), utils.DefaultMessage),
			)
		}
		if !fs.Mode().IsDir() {
			log.Fatalf(utils.DecorateText(
				"expected a directory of frames or a comma separated frame pair\n", utils.ErrorMessage))
		}
		err = op.processSequence(p)
	}

	if err == nil {
		fmt.Fprintf(os.Stderr, "\nExecution time: %s\n",
			utils.DecorateText(utils.FormatTime(time.Since(now)), utils.SuccessMessage))
	}
}

// processPair estimates the flow between two explicitly provided frames.
func (op *Ops) processPair(p *Processor, a, b, out string) error {
	successMsg := fmt.Sprintf("%s %s %s",
		utils.DecorateText("⚡ LKFLOW", utils.StatusMessage),
		utils.DecorateText("⇢", utils.DefaultMessage),
		utils.DecorateText("the optical flow has been estimated successfully ✔", utils.SuccessMessage),
	)
	errorMsg := fmt.Sprintf("%s %s %s",
		utils.DecorateText("⚡ LKFLOW", utils.StatusMessage),
		utils.DecorateText("estimating the optical flow failed...", utils.DefaultMessage),
		utils.DecorateText("✘", utils.ErrorMessage),
	)

	prev, err := op.openSource(a)
	if err != nil {
		return err
	}
	curr, err := op.openSource(b)
	if err != nil {
		return err
	}
	dst, err := op.openDest(out)
	if err != nil {
		return err
	}

	defer func() {
		for _, r := range []io.Reader{prev, curr} {
			if f, ok := r.(*os.File); ok {
				if err := f.Close(); err != nil {
					log.Printf("could not close the opened file: %v", err)
				}
			}
		}
		if f, ok := dst.(*os.File); ok && f != os.Stdout {
			if err := f.Close(); err != nil {
				log.Printf("could not close the destination file: %v", err)
			}
		}
	}()

	// Start the progress indicator.
	p.Spinner.Start()

	if err = p.Process(prev, curr, dst); err != nil {
		if f, ok := dst.(*os.File); ok && f != os.Stdout {
			// remove the generated image file in case of an error
			os.Remove(f.Name())
		}
		p.Spinner.StopMsg = errorMsg
		p.Spinner.Stop()

		return err
	}
	p.Spinner.StopMsg = successMsg
	p.Spinner.Stop()

	return nil
}

// processSequence streams the frame files of the source directory through a
// single estimator in their lexical order, the temporal delay line carrying
// the frame history across the sequence. The rendering and encoding of the
// computed fields is distributed across the workers.
func (op *Ops) processSequence(p *Processor) error {
	// Supported files
	validExtensions := []string{".jpg", ".png", ".jpeg", ".bmp", ".gif"}

	// Read destination file or directory.
	if _, err := os.Stat(op.Dst); err != nil {
		if err = os.Mkdir(op.Dst, 0755); err != nil {
			log.Fatalf(
				utils.DecorateText("Unable to get dir stats: %v\n", utils.ErrorMessage),
				utils.DecorateText(err.Error(), utils.DefaultMessage),
			)
		}
	}

	// Limit the concurrently running workers to maxWorkers.
	if op.Workers <= 0 || op.Workers > maxWorkers {
		op.Workers = runtime.NumCPU()
	}

	done := make(chan interface{})
	defer close(done)

	paths, errc := walkDir(done, op.Src, validExtensions)

	var frames []string
	for path := range paths {
		frames = append(frames, path)
	}
	if err := <-errc; err != nil {
		return err
	}
	sort.Strings(frames)

	if len(frames) < 2 {
		return errors.New("the frame sequence needs at least two frames")
	}

	jobs := make(chan job)
	ch := make(chan result)

	var wg sync.WaitGroup
	wg.Add(op.Workers)
	for i := 0; i < op.Workers; i++ {
		go func() {
			defer wg.Done()
			op.consumer(p, ch, done, jobs)
		}()
	}

	// Close the channel after the values are consumed.
	go func() {
		defer close(ch)
		wg.Wait()
	}()

	// The producer advances the estimator over the frame sequence.
	// The first frame only primes the delay line, it produces no output.
	go func() {
		defer close(jobs)

		var est *ByteFlow
		for i, path := range frames {
			img, field, err := stepFrame(p, &est, path)
			if err == nil && i == 0 {
				continue
			}
			select {
			case <-done:
				return
			case jobs <- job{path: path, field: field, frame: img, err: err}:
			}
		}
	}()

	p.Spinner.Start()

	var err error
	for res := range ch {
		if res.err != nil {
			err = res.err
		}
		op.printOpStatus(res.path, res.err)
	}

	p.Spinner.StopMsg = fmt.Sprintf("%s %s %s",
		utils.DecorateText("⚡ LKFLOW", utils.StatusMessage),
		utils.DecorateText("⇢", utils.DefaultMessage),
		utils.DecorateText("the frame sequence has been processed ✔", utils.SuccessMessage),
	)
	p.Spinner.Stop()

	return err
}

// stepFrame decodes the next frame of the sequence and advances the
// estimator, instantiating it lazily from the first frame dimensions.
func stepFrame(p *Processor, est **ByteFlow, path string) (*image.NRGBA, *Field[float32], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to open the source file: %v", err)
	}
	defer f.Close()

	img, err := p.Decode(f)
	if err != nil {
		return nil, nil, err
	}
	rows, cols := img.Bounds().Dy(), img.Bounds().Dx()

	if *est == nil {
		*est, err = p.NewEstimator(rows, cols)
		if err != nil {
			return nil, nil, err
		}
	} else if rows != (*est).flow.rows || cols != (*est).flow.cols {
		return nil, nil, fmt.Errorf("the sequence frame dimensions need to match, got %dx%d", cols, rows)
	}

	return img, (*est).Step(grayBytes(img)), nil
}

// consumer reads the computed flow fields from the jobs channel, renders and
// encodes them into the destination directory, then reports the results.
func (op *Ops) consumer(
	p *Processor,
	res chan<- result,
	done <-chan interface{},
	jobs <-chan job,
) {
	for j := range jobs {
		err := j.err
		if err == nil {
			dst := filepath.Join(op.Dst, filepath.Base(j.path))
			err = op.encodeField(p, j, dst)
		}

		select {
		case <-done:
			return
		case res <- result{
			path: j.path,
			err:  err,
		}:
		}
	}
}

// encodeField rasterizes a computed flow field and writes it to the destination file.
func (op *Ops) encodeField(p *Processor, j job, dst string) error {
	out, err := p.Rasterize(j.field, j.frame)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY, 0755)
	if err != nil {
		return fmt.Errorf("unable to create the destination file: %v", err)
	}
	defer f.Close()

	return encodeImg(f, out)
}

// openSource converts a source path, be it a local file or URL, to a readable file.
func (op *Ops) openSource(in string) (io.Reader, error) {
	if utils.IsValidUrl(in) {
		tmp, err := utils.DownloadImage(in)
		if err != nil {
			return nil, err
		}
		src, err := os.Open(tmp.Name())
		if err != nil {
			return nil, fmt.Errorf("unable to open the temporary image file: %v", err)
		}
		return src, nil
	}

	src, err := os.Open(in)
	if err != nil {
		return nil, fmt.Errorf("unable to open the source file: %v", err)
	}
	return src, nil
}

// openDest converts the destination path to a writable file, be it a pipe name or a regular file.
func (op *Ops) openDest(out string) (io.Writer, error) {
	if out == op.PipeName {
		if term.IsTerminal(int(os.Stdout.Fd())) {
			return nil, errors.New("`-` should be used with a pipe for stdout")
		}
		return os.Stdout, nil
	}

	dst, err := os.OpenFile(out, os.O_CREATE|os.O_WRONLY, 0755)
	if err != nil {
		return nil, fmt.Errorf("unable to create the destination file: %v", err)
	}
	return dst, nil
}

// printOpStatus displays the relevant information about the flow estimation process.
func (op *Ops) printOpStatus(fname string, err error) {
	if err != nil {
		log.Fatalf(
			utils.DecorateText("\nError estimating the optical flow: %s", utils.ErrorMessage),
			utils.DecorateText(fmt.Sprintf("\n\tReason: %v\n", err.Error()), utils.DefaultMessage),
		)
	} else {
		if fname != op.PipeName {
			fmt.Fprintf(os.Stderr, "\nThe flow image has been saved as: %s %s\n",
				utils.DecorateText(filepath.Base(fname), utils.SuccessMessage),
				utils.DefaultColor,
			)
		}
	}
}

// walkDir starts a new goroutine to walk the specified directory tree
// in recursive manner and sends the path of each regular file to a new channel.
// It finishes in case the done channel is getting closed.
func walkDir(
	done <-chan interface{},
	src string,
	srcExts []string,
) (<-chan string, <-chan error) {
	pathChan := make(chan string)
	errChan := make(chan error, 1)

	go func() {
		// Close the paths channel after Walk returns.
		defer close(pathChan)

		errChan <- filepath.Walk(src, func(path string, f os.FileInfo, err error) error {
			isFileSupported := false
			if err != nil {
				return err
			}
			if !f.Mode().IsRegular() {
				return nil
			}

			// Get the file base name.
			fx := filepath.Ext(f.Name())
			for _, ext := range srcExts {
				if ext == fx {
					isFileSupported = true
					break
				}
			}

			if isFileSupported {
				select {
				case <-done:
					return errors.New("directory walk cancelled")
				case pathChan <- path:
				}
			}
			return nil
		})
	}()
	return pathChan, errChan
}
