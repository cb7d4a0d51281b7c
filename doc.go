/*
objmap tracks objects detected in video frames and maps their ground contact
points onto a metric ground plane using a calibrated homography.

The work is split across packages.  detect defines the contract of the
external object detector, tracker assigns stable identities to detections
across frames, homography computes and validates the pixel to world transform,
mapping threads each frame through filtering, tracking and transformation into
a trajectory store, and render draws the resulting positions and trails on a
2D map.

See example code and usage in the examples subdirectory.
*/
package objmap
