package vision

import (
	"fmt"
	"image"
	"image/color"
	"runtime"

	"github.com/jrebull/graph-cuts-segmentation/segment"
	"gocv.io/x/gocv"
)

// MaskProcessor 基于 OpenCV 的掩码后处理与编码
type MaskProcessor struct{}

func NewMaskProcessor() *MaskProcessor {
	return &MaskProcessor{}
}

// toMat 将掩码转换为 0/255 的单通道 Mat
func toMat(m *segment.Mask) (gocv.Mat, error) {
	pix := m.Alpha().Pix
	// NewMatFromBytes 不拷贝数据，克隆一份由 OpenCV 自己管理
	view, err := gocv.NewMatFromBytes(m.Height, m.Width, gocv.MatTypeCV8U, pix)
	if err != nil {
		return gocv.Mat{}, err
	}
	defer view.Close()
	mat := view.Clone()
	runtime.KeepAlive(pix)
	return mat, nil
}

// fromMat 以 127 为阈值将单通道 Mat 还原为掩码
func fromMat(mat gocv.Mat) (*segment.Mask, error) {
	if mat.Channels() != 1 {
		return nil, fmt.Errorf("expected single channel mask, got %d channels", mat.Channels())
	}
	w, h := mat.Cols(), mat.Rows()
	a := &image.Alpha{
		Pix:    mat.ToBytes(),
		Stride: w,
		Rect:   image.Rect(0, 0, w, h),
	}
	return segment.MaskFromAlpha(a, 127), nil
}

// Resize 将掩码缩放到指定尺寸并重新二值化
func (mp *MaskProcessor) Resize(m *segment.Mask, width, height int) (*segment.Mask, error) {
	src, err := toMat(m)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(src, &resized, image.Point{X: width, Y: height}, 0, 0, gocv.InterpolationLinear)
	gocv.Threshold(resized, &resized, 127, 255, gocv.ThresholdBinary)

	return fromMat(resized)
}

// Morphology 开运算去除小块噪点，闭运算填补小孔
func (mp *MaskProcessor) Morphology(m *segment.Mask, kernelSize int) (*segment.Mask, error) {
	src, err := toMat(m)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	kernel := gocv.GetStructuringElement(gocv.MorphEllipse, image.Point{X: kernelSize, Y: kernelSize})
	defer kernel.Close()

	opened := gocv.NewMat()
	defer opened.Close()
	gocv.MorphologyEx(src, &opened, gocv.MorphOpen, kernel)

	closed := gocv.NewMat()
	defer closed.Close()
	gocv.MorphologyEx(opened, &closed, gocv.MorphClose, kernel)

	return fromMat(closed)
}

// KeepLargest 保留掩码中最大的连通区域
func (mp *MaskProcessor) KeepLargest(m *segment.Mask) (*segment.Mask, error) {
	src, err := toMat(m)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	contours := gocv.FindContours(src, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	if contours.Size() == 0 {
		return m.Clone(), nil
	}

	maxArea := 0.0
	maxIndex := 0
	for i := 0; i < contours.Size(); i++ {
		area := gocv.ContourArea(contours.At(i))
		if area > maxArea {
			maxArea = area
			maxIndex = i
		}
	}

	largest := gocv.Zeros(m.Height, m.Width, gocv.MatTypeCV8U)
	defer largest.Close()
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	gocv.DrawContours(&largest, contours, maxIndex, white, -1)

	// 只保留原本就是前景的像素，轮廓内部的孔洞不被填充
	kept := gocv.NewMat()
	defer kept.Close()
	gocv.BitwiseAnd(src, largest, &kept)

	return fromMat(kept)
}

// BoundingBox 计算所有前景轮廓的外接矩形
func (mp *MaskProcessor) BoundingBox(m *segment.Mask) (image.Rectangle, error) {
	src, err := toMat(m)
	if err != nil {
		return image.Rectangle{}, err
	}
	defer src.Close()

	contours := gocv.FindContours(src, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	var union image.Rectangle
	for i := 0; i < contours.Size(); i++ {
		r := gocv.BoundingRect(contours.At(i))
		if i == 0 {
			union = r
		} else {
			union = union.Union(r)
		}
	}
	return union, nil
}

// EncodePNG 将掩码编码为 PNG，invert 为真时输出背景掩码
func (mp *MaskProcessor) EncodePNG(m *segment.Mask, invert bool) ([]byte, error) {
	src, err := toMat(m)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	if invert {
		gocv.BitwiseNot(src, &src)
	}
	return encode(src)
}

// EncodeCutout 将带透明通道的抠图编码为 PNG
func (mp *MaskProcessor) EncodeCutout(img *image.NRGBA) ([]byte, error) {
	// ImageToMatRGBA 读取的是预乘后的颜色，这里按非预乘逐像素拷贝为 BGRA
	b := img.Bounds()
	data := make([]byte, 4*b.Dx()*b.Dy())
	for y := 0; y < b.Dy(); y++ {
		row := img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):]
		for x := 0; x < b.Dx(); x++ {
			i := 4 * (y*b.Dx() + x)
			data[i] = row[4*x+2]
			data[i+1] = row[4*x+1]
			data[i+2] = row[4*x]
			data[i+3] = row[4*x+3]
		}
	}

	mat, err := gocv.NewMatFromBytes(b.Dy(), b.Dx(), gocv.MatTypeCV8UC4, data)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	out, err := encode(mat)
	runtime.KeepAlive(data)
	return out, err
}

func encode(mat gocv.Mat) ([]byte, error) {
	buf, err := gocv.IMEncode(gocv.PNGFileExt, mat)
	if err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	defer buf.Close()

	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}
